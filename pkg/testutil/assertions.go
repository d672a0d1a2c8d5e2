package testutil

import (
	"testing"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/internal/hashutil"
	"github.com/stretchr/testify/assert"
)

// GetTestChecksum returns the checksum devsync records for content.
func GetTestChecksum(content string) string {
	return hashutil.Checksum([]byte(content))
}

// AssertErrorCode checks that err carries the given devsync error code.
func AssertErrorCode(t *testing.T, err error, code errors.ErrorCode, msgAndArgs ...interface{}) bool {
	t.Helper()
	if !assert.Error(t, err, msgAndArgs...) {
		return false
	}
	return assert.Equal(t, code, errors.GetErrorCode(err), msgAndArgs...)
}

// AssertProjectFile checks a project file's exact content.
func (env *TestEnvironment) AssertProjectFile(rel, want string) bool {
	env.t.Helper()
	if !assert.True(env.t, env.Exists(rel), "expected %s to exist", rel) {
		return false
	}
	return assert.Equal(env.t, want, env.ReadFile(rel), "content of %s", rel)
}

// AssertNoProjectFile checks that a project file does not exist.
func (env *TestEnvironment) AssertNoProjectFile(rel string) bool {
	env.t.Helper()
	return assert.False(env.t, env.Exists(rel), "expected %s to be absent", rel)
}
