package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged die rolling.
// All rolls are logged at debug level with the die, its size and the face.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source { return r.src }

// Intn forwards to the underlying Source so a Roller can stand in for one.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Roll rolls d and logs the outcome.
//
// Precondition: d.IsSpecified().
// Postcondition: 1 <= d.Value <= d.Sides.
func (r *Roller) Roll(d *Die) RollResult {
	before := d.Describe()
	d.Roll(r.src)
	result := RollResult{Die: before, Sides: d.Sides, Value: d.Value}
	r.logger.Debug("die roll",
		zap.String("die", result.Die),
		zap.Int("sides", result.Sides),
		zap.Int("value", result.Value),
		zap.Int("owner", d.Owner),
	)
	return result
}
