package googlecloud

import (
	"strconv"
	"time"

	"github.com/shreyapuff/petalplanner/internal/domain"
)

// taskEntity is the stored shape of a task. The id lives in the key.
type taskEntity struct {
	Text      string    `datastore:"text,noindex"`
	Mood      string    `datastore:"mood"`
	Completed bool      `datastore:"completed"`
	CreatedAt time.Time `datastore:"created_at"`
}

func toEntity(t domain.Task) *taskEntity {
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &taskEntity{
		Text:      t.Text,
		Mood:      string(t.Mood),
		Completed: t.Completed,
		CreatedAt: created.UTC(),
	}
}

func (e taskEntity) toTask(id int64) domain.Task {
	return domain.Task{
		ID:        formatID(id),
		Text:      e.Text,
		Mood:      domain.Mood(e.Mood),
		Completed: e.Completed,
		CreatedAt: e.CreatedAt.UTC(),
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidKey
	}
	return n, nil
}
