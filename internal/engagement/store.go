package engagement

import "streakd/internal/models"

// Store persists one profile's state. Implementations swallow their own
// failures: the engine keeps its in-memory state authoritative.
type Store interface {
	Load() (*models.State, bool)
	Save(state *models.State)
	Delete()
}
