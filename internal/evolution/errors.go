package evolution

import "errors"

var (
	// ErrCheckpointCollision indicates a checkpoint directory that already exists.
	ErrCheckpointCollision = errors.New("evolution: checkpoint already exists")

	// ErrGenomeMismatch indicates parents or population members with different key sets.
	ErrGenomeMismatch = errors.New("evolution: genomes have different parameters")

	// ErrTooFewScored indicates a selection from fewer than two scored genomes.
	ErrTooFewScored = errors.New("evolution: at least two scored genomes are required")

	// ErrPopulationTooSmall indicates a population that cannot breed.
	ErrPopulationTooSmall = errors.New("evolution: population must hold at least two genomes")

	// ErrInvalidConfig indicates an unusable engine configuration.
	ErrInvalidConfig = errors.New("evolution: invalid configuration")
)
