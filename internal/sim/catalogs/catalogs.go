package catalogs

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"portsim.ai/internal/sim/model"
)

// File names inside the config directory.
const (
	ItemsFile     = "electronics.txt"
	CompaniesFile = "shipping.txt"
	LocationsFile = "locations.txt"
)

// DangerousKinds are the product types classified as dangerous goods.
var DangerousKinds = []string{"GPS_OR_NAVIGATION_SYSTEM", "SURVEILANCE_SYSTEMS"}

type Catalogs struct {
	Items     []model.Item
	Companies []string
	Locations []Location

	ItemsDigest     string
	CompaniesDigest string
	LocationsDigest string
}

// Location carries per-port risk metadata. DangerousProb and FakeProb are part
// of the dataset but not consulted by the simulation.
type Location struct {
	Name          string `json:"name"`
	DangerousProb int    `json:"dangerous_prob"`
	FakeProb      int    `json:"fake_prob"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	raw, err := os.ReadFile(filepath.Join(configDir, ItemsFile))
	if err != nil {
		return nil, err
	}
	c.ItemsDigest = sha256Hex(raw)
	if c.Items, err = ParseItems(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%s: %w", ItemsFile, err)
	}

	raw, err = os.ReadFile(filepath.Join(configDir, CompaniesFile))
	if err != nil {
		return nil, err
	}
	c.CompaniesDigest = sha256Hex(raw)
	if c.Companies, err = ParseCompanies(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%s: %w", CompaniesFile, err)
	}

	raw, err = os.ReadFile(filepath.Join(configDir, LocationsFile))
	if err != nil {
		return nil, err
	}
	c.LocationsDigest = sha256Hex(raw)
	if c.Locations, err = ParseLocations(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%s: %w", LocationsFile, err)
	}

	if len(c.Companies) == 0 {
		return nil, fmt.Errorf("%s: no companies", CompaniesFile)
	}
	if len(c.Locations) == 0 {
		return nil, fmt.Errorf("%s: no locations", LocationsFile)
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func IsDangerousKind(kind string) bool {
	for _, k := range DangerousKinds {
		if k == kind {
			return true
		}
	}
	return false
}

var (
	titleRE = regexp.MustCompile(`^Title=(.+)`)
	kindRE  = regexp.MustCompile(`^ProductTypeName=(.*)`)
	priceRE = regexp.MustCompile(`^ListPrice=([0-9]*)USD`)
)

// ParseItems reads the electronics dump: records of "Key=Value" lines separated
// by blank lines. A record becomes an item once it has a title, a product type
// and a non-zero price; incomplete fields carry over to the next record.
func ParseItems(r io.Reader) ([]model.Item, error) {
	var (
		items []model.Item
		title string
		kind  string
		price int
	)
	flush := func() {
		if title == "" || kind == "" || price == 0 {
			return
		}
		items = append(items, model.Item{
			Kind:        kind,
			Amount:      1,
			Dangerous:   IsDangerousKind(kind),
			Description: title,
			Price:       price,
		})
		title, kind, price = "", "", 0
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		if m := titleRE.FindStringSubmatch(line); m != nil {
			title = m[1]
			continue
		}
		if m := kindRE.FindStringSubmatch(line); m != nil {
			kind = m[1]
		}
		if m := priceRE.FindStringSubmatch(line); m != nil {
			price, _ = strconv.Atoi(m[1])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return items, nil
}

// ParseCompanies reads one shipping company per line.
func ParseCompanies(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// ParseLocations reads "name<TAB>dangerous_prob<TAB>fake_prob" lines.
func ParseLocations(r io.Reader) ([]Location, error) {
	var out []Location
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			return nil, fmt.Errorf("line %d: want 3 tab-separated fields, got %d", n, len(parts))
		}
		dp, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: dangerous_prob: %w", n, err)
		}
		fp, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: fake_prob: %w", n, err)
		}
		out = append(out, Location{Name: parts[0], DangerousProb: dp, FakeProb: fp})
	}
	return out, sc.Err()
}
