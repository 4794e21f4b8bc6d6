// Package level собирает сцену из описания уровня: YAML-файла или генератора по сиду.
package level

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/physics"
	"github.com/annel0/pixel-platformer/internal/vec"
)

// Box прямоугольник размещения: левый нижний угол и размер
type Box struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	W int `yaml:"w" json:"w"`
	H int `yaml:"h" json:"h"`
}

func (b Box) Position() vec.Vec2 { return vec.Vec2{X: b.X, Y: b.Y} }
func (b Box) Size() vec.Vec2     { return vec.Vec2{X: b.W, Y: b.H} }

type SolidDef struct {
	Box            `yaml:",inline"`
	RidingPriority int `yaml:"riding_priority"`
}

type OneWayDef struct {
	Box       `yaml:",inline"`
	Direction string `yaml:"direction"`
}

// MovingDef платформа стартует в From; x, y игнорируются
type MovingDef struct {
	Box            `yaml:",inline"`
	From           config.Point `yaml:"from"`
	To             config.Point `yaml:"to"`
	Speed          float64      `yaml:"speed"`
	RidingPriority int          `yaml:"riding_priority"`
}

type SpringDef struct {
	Box               `yaml:",inline"`
	MountOnBelowSolid bool `yaml:"mount_on_below_solid"`
	RideBelowSolid    bool `yaml:"ride_below_solid"`
}

// Definition описание уровня
type Definition struct {
	Name      string       `yaml:"name"`
	Seed      int64        `yaml:"seed,omitempty"`
	Solids    []SolidDef   `yaml:"solids"`
	OneWay    []OneWayDef  `yaml:"one_way"`
	Moving    []MovingDef  `yaml:"moving"`
	Springs   []SpringDef  `yaml:"springs"`
	Player    Box          `yaml:"player"`
	SafePoint config.Point `yaml:"safe_point"`
}

// LoadDefinition читает YAML уровня
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать уровень %s: %w", path, err)
	}
	return ParseDefinition(data)
}

// ParseDefinition разбирает YAML уровня и проверяет его
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("ошибка разбора уровня: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate проверяет размеры и направления
func (d *Definition) Validate() error {
	check := func(kind string, i int, b Box) error {
		if b.W <= 0 || b.H <= 0 {
			return fmt.Errorf("%s[%d]: размер должен быть > 0, получено %dx%d", kind, i, b.W, b.H)
		}
		return nil
	}
	for i, s := range d.Solids {
		if err := check("solids", i, s.Box); err != nil {
			return err
		}
	}
	for i, o := range d.OneWay {
		if err := check("one_way", i, o.Box); err != nil {
			return err
		}
		if _, err := ParseDirection(o.Direction); err != nil {
			return fmt.Errorf("one_way[%d]: %w", i, err)
		}
	}
	for i, m := range d.Moving {
		if err := check("moving", i, m.Box); err != nil {
			return err
		}
		if m.Speed <= 0 {
			return fmt.Errorf("moving[%d]: скорость должна быть > 0", i)
		}
		if m.From == m.To {
			return fmt.Errorf("moving[%d]: from и to совпадают", i)
		}
	}
	for i, s := range d.Springs {
		if err := check("springs", i, s.Box); err != nil {
			return err
		}
	}
	if d.Player.W < 0 || d.Player.H < 0 {
		return fmt.Errorf("player: отрицательный размер")
	}
	return nil
}

// ParseDirection разбирает сторону односторонней платформы; пустая строка значит up
func ParseDirection(s string) (physics.Direction8, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "up":
		return physics.Up, nil
	case "down":
		return physics.Down, nil
	case "left":
		return physics.Left, nil
	case "right":
		return physics.Right, nil
	}
	return physics.Up, fmt.Errorf("неизвестное направление %q", s)
}
