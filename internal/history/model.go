package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// TableName is the history table in the default schema.
const TableName = "shpload_history"

// Entry is one completed load.
type Entry struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TargetSchema string    `gorm:"column:target_schema;not null;index:idx_shpload_history_target"`
	TargetTable  string    `gorm:"column:target_table;not null;index:idx_shpload_history_target"`
	Source       string    `gorm:"column:source;not null"`
	Checksum     string    `gorm:"column:checksum;type:char(64)"`
	Rows         int64     `gorm:"column:row_count;not null"`
	Replaced     bool      `gorm:"column:replaced;not null"`
	Appended     bool      `gorm:"column:appended;not null"`
	DurationMS   int64     `gorm:"column:duration_ms;not null"`
	LoadedAt     time.Time `gorm:"column:loaded_at;not null;index"`
}

func (Entry) TableName() string {
	return TableName
}

// Table returns the loaded table's name.
func (e Entry) Table() shpload.TableName {
	return shpload.TableName{Schema: e.TargetSchema, Name: e.TargetTable}
}

func newEntry(r shpload.LoadResult, checksum string, now time.Time) Entry {
	id := r.LoadID
	if id == uuid.Nil {
		id = uuid.New()
	}
	t := r.Table.WithDefaultSchema("")
	return Entry{
		ID:           id,
		TargetSchema: t.Schema,
		TargetTable:  t.Name,
		Source:       r.Source,
		Checksum:     checksum,
		Rows:         r.Rows,
		Replaced:     r.Replaced,
		Appended:     r.Appended,
		DurationMS:   r.Duration.Milliseconds(),
		LoadedAt:     now.UTC(),
	}
}
