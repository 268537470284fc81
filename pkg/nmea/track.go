// Package nmea reads GPS logger tracks so a photo without EXIF GPS can be
// placed from the logger's fix closest to its capture time.
package nmea

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/benmeehan/imgmapon/pkg/location"
	"github.com/rs/zerolog"
)

// ErrEmptyTrack is returned when a log holds no usable fix.
var ErrEmptyTrack = errors.New("no valid GPS fixes found")

// Fix is one timestamped position from the logger.
type Fix struct {
	Time  time.Time
	Point location.GeoPoint
	HDOP  float64
}

// Track is a time-ordered list of fixes.
type Track struct {
	Fixes []Fix
}

// LoadTrack parses an NMEA log file.
func LoadTrack(path string, logger zerolog.Logger) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track: %w", err)
	}
	defer f.Close()

	return ParseTrack(f, logger)
}

// ParseTrack reads RMC and GGA sentences. RMC carries the date; GGA fixes
// inherit the date of the latest RMC and contribute HDOP. Void RMC and
// zero-quality GGA fixes are skipped, as are unparsable lines.
func ParseTrack(r io.Reader, logger zerolog.Logger) (*Track, error) {
	var (
		fixes   []Fix
		day     time.Time
		skipped int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := gonmea.Parse(line)
		if err != nil {
			skipped++
			continue
		}

		switch s := sentence.(type) {
		case gonmea.RMC:
			if s.Validity != gonmea.ValidRMC || !s.Date.Valid || !s.Time.Valid {
				continue
			}
			day = time.Date(2000+s.Date.YY, time.Month(s.Date.MM), s.Date.DD, 0, 0, 0, 0, time.UTC)
			if p, ok := location.NewGeoPoint(s.Latitude, s.Longitude); ok {
				fixes = append(fixes, Fix{Time: at(day, s.Time), Point: p})
			}
		case gonmea.GGA:
			if s.FixQuality == gonmea.Invalid || !s.Time.Valid || day.IsZero() {
				continue
			}
			p, ok := location.NewGeoPoint(s.Latitude, s.Longitude)
			if !ok {
				continue
			}
			ts := at(day, s.Time)
			if n := len(fixes); n > 0 && fixes[n-1].Time.Equal(ts) {
				fixes[n-1].HDOP = s.HDOP
				continue
			}
			fixes = append(fixes, Fix{Time: ts, Point: p, HDOP: s.HDOP})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read track: %w", err)
	}

	if skipped > 0 {
		logger.Warn().Int("skipped", skipped).Msg("Skipped unparsable NMEA sentences")
	}
	if len(fixes) == 0 {
		return nil, ErrEmptyTrack
	}

	sort.SliceStable(fixes, func(i, j int) bool { return fixes[i].Time.Before(fixes[j].Time) })
	return &Track{Fixes: fixes}, nil
}

func at(day time.Time, t gonmea.Time) time.Time {
	return day.Add(time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Millisecond)*time.Millisecond)
}

// Closest returns the fix nearest to ts, provided it lies within maxGap.
func (t *Track) Closest(ts time.Time, maxGap time.Duration) (Fix, bool) {
	if t == nil || len(t.Fixes) == 0 {
		return Fix{}, false
	}

	i := sort.Search(len(t.Fixes), func(i int) bool { return !t.Fixes[i].Time.Before(ts) })

	best := -1
	var bestGap time.Duration
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(t.Fixes) {
			continue
		}
		gap := absDuration(t.Fixes[j].Time.Sub(ts))
		if best == -1 || gap < bestGap {
			best, bestGap = j, gap
		}
	}

	if best == -1 || bestGap > maxGap {
		return Fix{}, false
	}
	return t.Fixes[best], true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
