package client

import (
	"sync"
	"testing"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"github.com/stretchr/testify/assert"
)

func TestSessionSetAndClear(t *testing.T) {
	s := NewSession(nil)
	assert.False(t, s.IsAuthenticated())

	_, ok := s.Identity()
	assert.False(t, ok)

	s.Set("token-1", policy.Identity{UserID: 7, Username: "tec", Role: models.RoleTecnico})
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "token-1", s.Token())
	identity, ok := s.Identity()
	assert.True(t, ok)
	assert.Equal(t, uint(7), identity.UserID)

	s.Clear()
	assert.False(t, s.IsAuthenticated())
	_, ok = s.Identity()
	assert.False(t, ok)
}

func TestSessionExpireNotifiesAfterClearing(t *testing.T) {
	var s *Session
	var sawToken string
	calls := 0
	s = NewSession(func() {
		calls++
		sawToken = s.Token()
	})
	s.Set("token-1", policy.Identity{UserID: 1, Role: models.RoleMaster})

	assert.True(t, s.expireIf("token-1"))

	assert.Equal(t, 1, calls)
	assert.Empty(t, sawToken)
}

func TestSessionExpireIfKeepsNewerCredential(t *testing.T) {
	calls := 0
	s := NewSession(func() { calls++ })
	s.Set("token-2", policy.Identity{UserID: 1, Role: models.RoleMaster})

	assert.False(t, s.expireIf("token-1"))
	assert.False(t, s.expireIf(""))

	assert.Zero(t, calls)
	assert.Equal(t, "token-2", s.Token())
}

func TestSessionConcurrentAccess(t *testing.T) {
	s := NewSession(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set("token", policy.Identity{UserID: 1, Role: models.RoleDitta})
		}()
		go func() {
			defer wg.Done()
			_ = s.IsAuthenticated()
			_, _ = s.Identity()
		}()
	}
	wg.Wait()
	assert.Equal(t, "token", s.Token())
}
