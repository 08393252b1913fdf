package config

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Skill is a markdown instruction file appended to the main system prompt.
type Skill struct {
	Name        string
	Description string
	Content     string
	Path        string
}

type skillMeta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadSkills reads skills from dirs. A skill is either a top-level *.md file
// or a subdirectory holding SKILL.md with YAML frontmatter (name,
// description). Missing directories are skipped; a later directory overrides
// an earlier skill of the same name. The result is sorted by name.
func LoadSkills(dirs ...string) ([]Skill, error) {
	byName := make(map[string]Skill)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			var (
				skill Skill
				ok    bool
			)
			if entry.IsDir() {
				skill, ok = loadSkillFile(filepath.Join(dir, entry.Name(), "SKILL.md"), entry.Name())
			} else if strings.HasSuffix(entry.Name(), ".md") {
				skill, ok = loadSkillFile(filepath.Join(dir, entry.Name()), strings.TrimSuffix(entry.Name(), ".md"))
			}
			if ok {
				byName[skill.Name] = skill
			}
		}
	}

	skills := make([]Skill, 0, len(byName))
	for _, s := range byName {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

func loadSkillFile(path, fallbackName string) (Skill, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, false
	}
	meta, body := splitFrontmatter(data)
	name := meta.Name
	if name == "" {
		name = fallbackName
	}
	return Skill{
		Name:        name,
		Description: meta.Description,
		Content:     strings.TrimSpace(body),
		Path:        path,
	}, true
}

// splitFrontmatter separates a leading "---" YAML block from the body.
// Unparseable frontmatter is treated as body text.
func splitFrontmatter(data []byte) (skillMeta, string) {
	var meta skillMeta
	if !bytes.HasPrefix(data, []byte("---")) {
		return meta, string(data)
	}
	rest := data[3:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return meta, string(data)
	}
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return skillMeta{}, string(data)
	}
	body := rest[end+len("\n---"):]
	return meta, strings.TrimPrefix(string(body), "\n")
}

// FormatSkillsPrompt renders skills as a system prompt section.
func FormatSkillsPrompt(skills []Skill) string {
	if len(skills) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Available Skills\n\n")
	for _, skill := range skills {
		sb.WriteString("## ")
		sb.WriteString(skill.Name)
		if skill.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(skill.Description)
		}
		sb.WriteString("\n\n")
		sb.WriteString(skill.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
