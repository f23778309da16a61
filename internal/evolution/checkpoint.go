package evolution

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/coilgun/internal/genome"
)

const (
	generationPrefix = "gen_"
	dnaPrefix        = "DNA_"
	dnaExt           = ".yaml"
)

// padWidth is the number of decimal digits of n, floor(log10(n))+1.
func padWidth(n int) int {
	if n < 1 {
		return 1
	}
	return len(strconv.Itoa(n))
}

// Checkpoint writes the current population to dest/gen_<generation>/ with
// one DNA_<index>.yaml per genome and returns the generation directory. An
// existing generation directory is never overwritten.
func (e *Engine) Checkpoint(dest string) (string, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s%0*d", generationPrefix, padWidth(e.cfg.LastGeneration), e.generation)
	dir := filepath.Join(dest, name)
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrCheckpointCollision, dir)
		}
		return "", err
	}

	width := padWidth(e.size)
	for i, dna := range e.population {
		path := filepath.Join(dir, fmt.Sprintf("%s%0*d%s", dnaPrefix, width, i, dnaExt))
		if err := dna.Save(path); err != nil {
			return dir, fmt.Errorf("checkpoint genome %d: %w", i, err)
		}
	}

	e.logger.Debug("checkpoint written", "dir", dir, "genomes", len(e.population))
	return dir, nil
}

// LoadCheckpoint reads every DNA_<index>.yaml of a generation directory in
// index order.
func LoadCheckpoint(dir string) ([]*genome.DNA, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type indexed struct {
		index int
		path  string
	}
	var files []indexed
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, dnaPrefix) || !strings.HasSuffix(name, dnaExt) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, dnaPrefix), dnaExt))
		if err != nil {
			continue
		}
		files = append(files, indexed{idx, filepath.Join(dir, name)})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("evolution: no genomes in %s", dir)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	population := make([]*genome.DNA, len(files))
	for i, f := range files {
		dna, err := genome.ReadDNA(f.path)
		if err != nil {
			return nil, err
		}
		population[i] = dna
	}
	return population, nil
}

// CheckpointGeneration parses the generation number from a gen_<n>
// directory name.
func CheckpointGeneration(dir string) (int, error) {
	base := filepath.Base(filepath.Clean(dir))
	if !strings.HasPrefix(base, generationPrefix) {
		return 0, fmt.Errorf("evolution: %s is not a generation directory", dir)
	}
	return strconv.Atoi(strings.TrimPrefix(base, generationPrefix))
}
