package entities

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// decodeMetadata unpacks a jsonb column into a map. Malformed metadata
// degrades to nil rather than failing the read path.
func decodeMetadata(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil
	}
	return metadata
}

// encodeMetadata packs a map into a jsonb column value.
func encodeMetadata(metadata map[string]any) datatypes.JSON {
	if len(metadata) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
