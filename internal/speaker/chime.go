package speaker

import "github.com/777genius/standupbot/internal/config"

// Chime is the short sound played when a trigger fires, so people in the
// meeting know the bot is about to answer
type Chime struct {
	path   string
	volume float64
}

// NewChime creates a chime from audio config
func NewChime(cfg config.AudioConfig) *Chime {
	return &Chime{
		path:   cfg.ChimeSound,
		volume: cfg.ChimeVolume,
	}
}

// Play blocks until the chime finishes. Leaving the sound path unset
// disables the chime entirely.
func (c *Chime) Play() error {
	if c.path == "" {
		return nil
	}

	player, err := NewPlayer("", c.volume)
	if err != nil {
		return err
	}
	defer player.Close()

	return player.Play(c.path)
}
