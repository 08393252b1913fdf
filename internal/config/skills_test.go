package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadSkills_FlatFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "review.md"), "# Review\nCode review")
	write(t, filepath.Join(dir, "commit.md"), "# Commit\nGit commit helper")
	write(t, filepath.Join(dir, "readme.txt"), "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "empty"), 0o755))

	skills, err := LoadSkills(dir)
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "commit", skills[0].Name)
	assert.Equal(t, "review", skills[1].Name)
	assert.Equal(t, "# Commit\nGit commit helper", skills[0].Content)
}

func TestLoadSkills_SkillDirWithFrontmatter(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "pdf", "SKILL.md"),
		"---\nname: pdf-tools\ndescription: \"Work with PDF files\"\n---\n\nUse pdftotext first.\n")

	skills, err := LoadSkills(dir)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "pdf-tools", skills[0].Name)
	assert.Equal(t, "Work with PDF files", skills[0].Description)
	assert.Equal(t, "Use pdftotext first.", skills[0].Content)
}

func TestLoadSkills_BadFrontmatterKeptAsBody(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "odd.md"), "---\n: [unclosed\n---\nbody")

	skills, err := LoadSkills(dir)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "odd", skills[0].Name)
	assert.Contains(t, skills[0].Content, "body")
}

func TestLoadSkills_LaterDirOverrides(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	write(t, filepath.Join(dir1, "a.md"), "first")
	write(t, filepath.Join(dir2, "a.md"), "second")
	write(t, filepath.Join(dir2, "b.md"), "skill B")

	skills, err := LoadSkills(dir1, "/nonexistent/dir", dir2)
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "second", skills[0].Content)
}

func TestFormatSkillsPrompt(t *testing.T) {
	assert.Equal(t, "", FormatSkillsPrompt(nil))

	result := FormatSkillsPrompt([]Skill{
		{Name: "commit", Content: "Git commit helper"},
		{Name: "pdf", Description: "PDF work", Content: "Use pdftotext."},
	})
	assert.Equal(t, "# Available Skills\n\n## commit\n\nGit commit helper\n\n## pdf: PDF work\n\nUse pdftotext.\n\n", result)
}
