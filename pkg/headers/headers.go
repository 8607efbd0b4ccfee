package headers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/cases"
)

// Names lists every world-map slot that has a header template.
var Names = []string{
	"MapAcrithiaHex",
	"MapAllodsBightHex",
	"MapAshFieldsHex",
	"MapBasinSionnachHex",
	"MapCallahansPassageHex",
	"MapCallumsCapeHex",
	"MapClahstraHex",
	"MapClansheadValleyHex",
	"MapDeadlandsHex",
	"MapDrownedValeHex",
	"MapEndlessShoreHex",
	"MapFarranacCoastHex",
	"MapFishermansRowHex",
	"MapGodcroftsHex",
	"MapGreatMarchHex",
	"MapGutterHex",
	"MapHeartlandsHex",
	"MapHomeRegionC",
	"MapHomeRegionW",
	"MapHowlCountyHex",
	"MapKalokaiHex",
	"MapKingsCageHex",
	"MapKuuraStrandHex",
	"MapLinnMercyHex",
	"MapLochMorHex",
	"MapLykosIsleHex",
	"MapMarbanHollowHex",
	"MapMooringCountyHex",
	"MapMorgensCrossingHex",
	"MapNevishLineHex",
	"MapOarbreakerHex",
	"MapOlavisWakeHex",
	"MapOnyxHex",
	"MapOriginHex",
	"MapPalantineBermHex",
	"MapPariPeakHex",
	"MapPipersEnclaveHex",
	"MapReachingTrailHex",
	"MapReaversPassHex",
	"MapRedRiverHex",
	"MapSableportHex",
	"MapShackledChasmHex",
	"MapSpeakingWoodsHex",
	"MapStemaLandingHex",
	"MapStlicanShelfHex",
	"MapStonecradleHex",
	"MapTempestIslandHex",
	"MapTerminusHex",
	"MapTheFingersHex",
	"MapTyrantFoothillsHex",
	"MapUmbralWildwoodHex",
	"MapViperPitHex",
	"MapWeatheredExpanseHex",
	"MapWestgateHex",
	"MapWrestaHex",
}

// ErrUnknownName is returned by Resolve for a name with no template.
var ErrUnknownName = errors.New("unknown texture name")

// Template is the binary header that precedes a texture of one map slot.
type Template struct {
	Name  string // canonical casing
	Bytes []byte
}

// Catalog maps texture names to header templates, ignoring case.
// It is never modified after construction and is safe for concurrent use.
type Catalog struct {
	byKey map[string]Template
	names []string
}

// foldKey returns the case-insensitive lookup key for name. It applies
// full Unicode case folding, so "ß" matches "ss" as well as plain
// ASCII case differences. A cases.Caser is stateful, so a new one is
// made per call.
func foldKey(name string) string {
	return cases.Fold().String(name)
}

// New builds a catalog from name -> template bytes.
func New(templates map[string][]byte) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]Template, len(templates))}
	for name, data := range templates {
		key := foldKey(name)
		if prev, ok := c.byKey[key]; ok {
			return nil, fmt.Errorf("template names %q and %q differ only in case", prev.Name, name)
		}
		c.byKey[key] = Template{Name: name, Bytes: data}
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// Load reads the template for every entry of Names from dir.
// A missing template is an error; the catalog is all or nothing.
func Load(dir string) (*Catalog, error) {
	templates := make(map[string][]byte, len(Names))
	for _, name := range Names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read header template %s: %w", path, err)
		}
		templates[name] = data
	}
	return New(templates)
}

// Resolve finds the template for name, matching case-insensitively.
// The returned Template carries the canonical name.
func (c *Catalog) Resolve(name string) (Template, error) {
	t, ok := c.byKey[foldKey(name)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	return t, nil
}

// Names returns the canonical names in the catalog, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.byKey) }
