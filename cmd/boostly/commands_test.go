package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/boostly/internal/features/admin"
)

func TestHashPasswordCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"hash-password", "s3cret"})

	require.NoError(t, root.Execute())

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	ok, err := admin.VerifyPassword("s3cret", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetRejectsBadTimestamp(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"reset", "--at", "вчера"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RFC3339")
}

func TestStudentAddRequiresFlags(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"student", "add", "--campus-uid", "S1"})

	assert.Error(t, root.Execute())
}
