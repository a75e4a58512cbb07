package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cesto93/ai-agile-dev/internal/pipeline"
	"github.com/cesto93/ai-agile-dev/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const problemText = "Users need to log in and log out. The office plants are green."

func TestCreate_SavesStoriesAndProblem(t *testing.T) {
	dir := t.TempDir()

	out, err := executeCommand(t, problemText, "create", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Login")
	assert.Contains(t, out, "Logout")
	assert.Contains(t, out, "2 saved")

	assert.FileExists(t, filepath.Join(dir, store.StoriesDir, "Login.md"))

	out, err = executeCommand(t, "", "list", "--dir", dir, "--json")
	require.NoError(t, err)
	var entries []store.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Login", entries[0].Title)
	assert.Equal(t, "Logout", entries[1].Title)

	out, err = executeCommand(t, "", "get", "Login", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "# Login")
	assert.Contains(t, out, "As a user")

	out, err = executeCommand(t, "", "problem", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, problemText)
}

func TestCreate_FromDocPath(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(t.TempDir(), "problem.txt")
	require.NoError(t, os.WriteFile(doc, []byte(problemText), 0o644))

	out, err := executeCommand(t, "", "create", "--dir", dir, "--doc-path", doc, "--json")
	require.NoError(t, err)

	var result pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"Login", "Logout"}, result.Report.Saved)
	assert.Empty(t, result.Report.Failed)
}

func TestCreate_MinimalSavesNothing(t *testing.T) {
	dir := t.TempDir()

	out, err := executeCommand(t, problemText, "create", "--dir", dir, "--minimal", "--json")
	require.NoError(t, err)
	var result pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Minimal)
	assert.Len(t, result.Stories, 2)

	out, err = executeCommand(t, "", "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No stories found.")

	out, err = executeCommand(t, "", "problem", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No problem description stored yet.")
}

func TestCreate_EmptyInput(t *testing.T) {
	_, err := executeCommand(t, "   ", "create", "--dir", t.TempDir())
	assert.ErrorIs(t, err, pipeline.ErrEmptyInput)
}

func TestCreate_NeedsInputOnTerminal(t *testing.T) {
	resetFlags(rootCmd)
	orig := stdinIsTerminal
	stdinIsTerminal = func() bool { return true }
	defer func() { stdinIsTerminal = orig }()

	err := runCreate(createCmd, nil)
	assert.ErrorContains(t, err, "--doc-path")
}

func TestGet_NotFound(t *testing.T) {
	_, err := executeCommand(t, "", "get", "Nope", "--dir", t.TempDir())
	assert.Error(t, err)
	assert.Equal(t, "Story not found.", userMessage(err))
}

func TestEditRenameRemove(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, problemText, "create", "--dir", dir)
	require.NoError(t, err)

	out, err := executeCommand(t, "# Login\n\nhand written", "edit", "Login", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated Login")

	_, err = executeCommand(t, "", "rename", "Login", "Sign in", "--dir", dir)
	require.NoError(t, err)

	out, err = executeCommand(t, "", "get", "Sign in", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "# Login\n\nhand written", out)
	assert.FileExists(t, filepath.Join(dir, store.StoriesDir, "Sign_in.md"))

	_, err = executeCommand(t, "", "rename", "Sign in", "Logout", "--dir", dir)
	assert.ErrorIs(t, err, store.ErrTitleExists)

	out, err = executeCommand(t, "", "remove", "Sign in", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed Sign in")

	out, err = executeCommand(t, "", "remove", "Sign in", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No story titled Sign in")
}

func TestEdit_FromFile(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, problemText, "create", "--dir", dir)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "new.md")
	require.NoError(t, os.WriteFile(file, []byte("from file"), 0o644))

	_, err = executeCommand(t, "", "edit", "Logout", "--file", file, "--dir", dir)
	require.NoError(t, err)

	out, err := executeCommand(t, "", "get", "Logout", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "from file", out)
}

func TestRemoveAll_ConfirmationAndProblemKept(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, problemText, "create", "--dir", dir)
	require.NoError(t, err)

	_, err = executeCommand(t, "", "remove", "--all", "--dir", dir)
	require.NoError(t, err)
	out, err := executeCommand(t, "", "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Login", "non-interactive remove --all without --yes must not delete")

	out, err = executeCommand(t, "", "remove", "--all", "--yes", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 stories")

	out, err = executeCommand(t, "", "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No stories found.")

	out, err = executeCommand(t, "", "problem", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, problemText)
}

func TestRemove_Args(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, "", "remove", "--dir", dir)
	assert.Error(t, err)

	_, err = executeCommand(t, "", "remove", "X", "--all", "--dir", dir)
	assert.Error(t, err)
}

func TestDoctor_JSON(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, problemText, "create", "--dir", dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.StoriesDir, "Stray.md"), []byte("x"), 0o644))

	out, err := executeCommand(t, "", "doctor", "--dir", dir, "--json")
	require.NoError(t, err)

	var checks []DoctorCheck
	require.NoError(t, json.Unmarshal([]byte(out), &checks))
	var storeWarnings int
	for _, c := range checks {
		if c.Name == "Store" && c.Status == "warn" {
			storeWarnings++
			assert.Contains(t, c.Message, "Stray.md")
		}
	}
	assert.Equal(t, 1, storeWarnings)
}
