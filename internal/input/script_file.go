package input

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseScript читает сценарий ввода построчно: "<кадров> <действия>" или
// просто "<действия>" на один кадр. Пустое действие записывается точкой,
// строки с # пропускаются.
//
//	30 R
//	5 RJ
//	12 .
func ParseScript(r io.Reader) (*Script, error) {
	s := NewScript()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch len(fields) {
		case 1:
			s.Repeat(ParseFrame(fields[0]), 1)
		case 2:
			n, err := strconv.Atoi(fields[0])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("строка %d: неверное число кадров %q", line, fields[0])
			}
			s.Repeat(ParseFrame(fields[1]), n)
		default:
			return nil, fmt.Errorf("строка %d: ожидалось \"<кадров> <действия>\"", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rewind возвращает сценарий к первому кадру
func (s *Script) Rewind() { s.pos = 0 }
