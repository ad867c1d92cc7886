package checkpoint

import (
	"time"

	"github.com/uptrace/bun"
)

// checkpointModel is the bun row shape backing SQLStore. The checkpoint
// itself is stored as a single jsonb payload (its shape grows as stages
// complete, per §4.7) with the fields a caller might query or index on
// promoted to real columns, mirroring the teacher's JSONBMap-plus-columns
// pattern in storage/models (e.g. WorkflowModel's Variables/Metadata
// columns alongside its indexed Name/Status/CreatedAt columns).
type checkpointModel struct {
	bun.BaseModel `bun:"table:workflow_checkpoints,alias:wc"`

	WorkflowID         string    `bun:"workflow_id,pk"`
	LastCompletedStage string    `bun:"last_completed_stage,notnull"`
	Payload            []byte    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt          time.Time `bun:"updated_at,notnull"`
}
