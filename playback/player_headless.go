//go:build headless

package playback

import "notehero/models"

// OtoPlayer keeps time without an audio device in headless builds.
type OtoPlayer struct {
	*Silent
}

func NewPlayer(pcm *models.PCMBuffer) (*OtoPlayer, error) {
	return &OtoPlayer{Silent: NewSilent()}, nil
}
