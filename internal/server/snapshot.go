package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

// snapshotToStruct renders a snapshot with the same keys as its JSON form.
func snapshotToStruct(s pipeline.Snapshot) (*structpb.Struct, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return structpb.NewStruct(m)
}

func structToSnapshot(st *structpb.Struct) (pipeline.Snapshot, error) {
	var s pipeline.Snapshot
	b, err := json.Marshal(st.AsMap())
	if err != nil {
		return s, fmt.Errorf("marshal state: %w", err)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}
