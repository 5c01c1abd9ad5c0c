package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tejashwikalptaru/studybeats/internal/logger"
	"github.com/tejashwikalptaru/studybeats/internal/testutil"
)

func TestMailbox_RunsInOrder(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := newMailbox(logger.NewTestLogger())

	var got []int
	for i := 0; i < 100; i++ {
		assert.True(t, m.post(func() { got = append(got, i) }))
	}
	m.close()

	assert.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestMailbox_CallWaits(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := newMailbox(logger.NewTestLogger())
	defer m.close()

	value := 0
	assert.True(t, m.call(func() { value = 42 }))
	assert.Equal(t, 42, value)
}

func TestMailbox_SurvivesPanics(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := newMailbox(logger.NewTestLogger())
	defer m.close()

	assert.True(t, m.call(func() { panic("boom") }))

	ran := false
	assert.True(t, m.call(func() { ran = true }))
	assert.True(t, ran)
}

func TestMailbox_ClosedRejectsWork(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := newMailbox(logger.NewTestLogger())
	m.close()
	m.close()

	assert.False(t, m.post(func() {}))
	assert.False(t, m.call(func() { t.Error("must not run") }))
}

func TestMailbox_ConcurrentPosts(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	m := newMailbox(logger.NewTestLogger())

	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.post(func() { count++ })
			}
		}()
	}
	wg.Wait()
	m.close()

	assert.Equal(t, 400, count)
}
