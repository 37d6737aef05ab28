package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFitzExtractorRejectsGarbage(t *testing.T) {
	_, err := NewFitzExtractor().ExtractPages(context.Background(), []byte("definitely not a pdf"))
	require.Error(t, err)
}
