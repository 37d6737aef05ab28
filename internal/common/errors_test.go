package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("stage: %w", NewAppError(CodeDraftFailed, MsgDraftFailed, errors.New("boom")))
	assert.ErrorIs(t, err, ErrDraftFailed)
	assert.NotErrorIs(t, err, ErrAnalysisFailed)
	assert.Equal(t, CodeDraftFailed, CodeOf(err))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestFailureMessage(t *testing.T) {
	err := NewAppError(CodeInsufficientContent, MsgInsufficientContent, nil)
	assert.Equal(t, "Processing failed: "+MsgInsufficientContent, FailureMessage(err))
	assert.Equal(t, "Processing failed: boom", FailureMessage(errors.New("boom")))
	assert.Equal(t, "Processing failed: "+MsgUnknownFailure, FailureMessage(nil))
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{NewAppError(CodeNoDocumentSelected, MsgNoDocumentSelected, nil), codes.FailedPrecondition},
		{NewAppError(CodeRunInProgress, MsgRunInProgress, nil), codes.FailedPrecondition},
		{NewAppError(CodeInsufficientContent, MsgInsufficientContent, nil), codes.InvalidArgument},
		{NewAppError(CodeWatchlistUnavailable, MsgWatchlistUnavailable, nil), codes.Unavailable},
		{NewAppError(CodeAnalysisFailed, MsgAnalysisFailed, nil), codes.Internal},
		{NewAppError(CodeDocumentTooLarge, "too big", ErrInvalidInput), codes.ResourceExhausted},
		{fmt.Errorf("%w: name is required", ErrValidation), codes.InvalidArgument},
		{errors.New("mystery"), codes.Unknown},
		{status.Error(codes.NotFound, "gone"), codes.NotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(ToStatus(tt.err)), tt.err.Error())
	}
	assert.NoError(t, ToStatus(nil))
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("name", "report.PDF", Required, DocumentExtension, MaxLength(20)).
		Field("data", []byte("x"), Required)
	assert.NoError(t, v.Error())

	v = NewValidator().
		Field("name", "notes.txt", DocumentExtension).
		Field("data", []byte{}, Required)
	err := v.Error()
	assert.True(t, IsValidation(err))
	assert.Len(t, v.Errors(), 2)
}
