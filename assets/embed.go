// assets/embed.go
//
// Embedded seed data: the default scene with its character bounding
// boxes. Used to populate an empty database at boot and by the admin
// reseed endpoint.

package assets

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/waldo-game/go-server/internal/store"
)

//go:embed scene.json
var fs embed.FS

type seedCharacter struct {
	Name string  `json:"name"`
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

type seedScene struct {
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Characters []seedCharacter `json:"characters"`
}

// DefaultScene parses the embedded scene definition. Character and scene
// ids are assigned by the store at seed time.
func DefaultScene() (store.Scene, error) {
	raw, err := fs.ReadFile("scene.json")
	if err != nil {
		return store.Scene{}, fmt.Errorf("read embedded scene: %w", err)
	}
	var seed seedScene
	if err := json.Unmarshal(raw, &seed); err != nil {
		return store.Scene{}, fmt.Errorf("parse embedded scene: %w", err)
	}
	sc := store.Scene{
		Name:     seed.Name,
		ImageURL: seed.ImageURL,
		Width:    seed.Width,
		Height:   seed.Height,
	}
	for _, c := range seed.Characters {
		sc.Characters = append(sc.Characters, store.Character{
			Name: c.Name,
			XMin: c.XMin,
			YMin: c.YMin,
			XMax: c.XMax,
			YMax: c.YMax,
		})
	}
	return sc, nil
}
