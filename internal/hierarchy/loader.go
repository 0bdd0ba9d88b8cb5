package hierarchy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/systmms/secretree/internal/config"
)

// treeFile is the YAML shape of a tree definition consumed by the CLI.
// Inheritance defaults to enabled when the key is omitted.
type treeFile struct {
	Config  *config.Fragment `yaml:"config"`
	Folders []folderDef      `yaml:"folders"`
	Jobs    []jobDef         `yaml:"jobs"`
}

type folderDef struct {
	Name    string           `yaml:"name"`
	Inherit *bool            `yaml:"inherit"`
	Config  *config.Fragment `yaml:"config"`
	Folders []folderDef      `yaml:"folders"`
	Jobs    []jobDef         `yaml:"jobs"`
}

type jobDef struct {
	Name        string           `yaml:"name"`
	Inherit     *bool            `yaml:"inherit"`
	Config      *config.Fragment `yaml:"config"`
	BuildNumber int              `yaml:"build_number"`
}

// LoadTree reads a YAML tree definition from path and builds the node
// index. Duplicate sibling names are rejected.
func LoadTree(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree definition: %w", err)
	}
	return ParseTree(data)
}

// ParseTree builds a Tree from YAML bytes.
func ParseTree(data []byte) (*Tree, error) {
	var def treeFile
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("invalid tree definition: %w", err)
	}

	root := &Root{Global: def.Config}
	tree := NewTree(root)

	if err := addChildren(tree, root, def.Folders, def.Jobs); err != nil {
		return nil, err
	}
	return tree, nil
}

func addChildren(tree *Tree, parent Node, folders []folderDef, jobs []jobDef) error {
	seen := map[string]bool{}

	for _, fd := range folders {
		if fd.Name == "" {
			return fmt.Errorf("folder under %s has no name", parent.Path())
		}
		if seen[fd.Name] {
			return fmt.Errorf("duplicate child %q under %s", fd.Name, parent.Path())
		}
		seen[fd.Name] = true

		folder := &Folder{
			FolderName: fd.Name,
			Up:         parent,
			Config:     fd.Config,
			Inherit:    inheritOrDefault(fd.Inherit),
		}
		tree.Add(folder)
		if err := addChildren(tree, folder, fd.Folders, fd.Jobs); err != nil {
			return err
		}
	}

	for _, jd := range jobs {
		if jd.Name == "" {
			return fmt.Errorf("job under %s has no name", parent.Path())
		}
		if seen[jd.Name] {
			return fmt.Errorf("duplicate child %q under %s", jd.Name, parent.Path())
		}
		seen[jd.Name] = true

		tree.Add(&Job{
			JobName:     jd.Name,
			Up:          parent,
			Config:      jd.Config,
			Inherit:     inheritOrDefault(jd.Inherit),
			BuildNumber: jd.BuildNumber,
		})
	}
	return nil
}

func inheritOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
