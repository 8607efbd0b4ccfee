package headers

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// writeTemplates creates one template file per name; the content is the name itself.
func writeTemplates(t *testing.T, names []string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("hdr:"+name), 0644); err != nil {
			t.Fatalf("Failed to write template %s: %v", name, err)
		}
	}
	return dir
}

func TestLoad_AllTemplates(t *testing.T) {
	cat, err := Load(writeTemplates(t, Names))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != len(Names) {
		t.Errorf("Expected %d templates, got %d", len(Names), cat.Len())
	}
	names := cat.Names()
	for i := 1; i < len(names); i++ {
		if names[i] <= names[i-1] {
			t.Errorf("Names not sorted: %q after %q", names[i], names[i-1])
		}
	}
}

func TestLoad_MissingTemplate(t *testing.T) {
	dir := writeTemplates(t, Names[1:])
	_, err := Load(dir)
	if err == nil {
		t.Fatal("Expected error for missing template")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	cat, err := Load(writeTemplates(t, Names))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, name := range []string{"MapDeadlandsHex", "mapdeadlandshex", "MAPDEADLANDSHEX", "mApDeAdLaNdShEx"} {
		t.Run(name, func(t *testing.T) {
			tmpl, err := cat.Resolve(name)
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", name, err)
			}
			if tmpl.Name != "MapDeadlandsHex" {
				t.Errorf("Expected canonical name MapDeadlandsHex, got %q", tmpl.Name)
			}
			if !bytes.Equal(tmpl.Bytes, []byte("hdr:MapDeadlandsHex")) {
				t.Errorf("Unexpected template bytes %q", tmpl.Bytes)
			}
		})
	}
}

func TestResolve_FullCaseFolding(t *testing.T) {
	cat, err := New(map[string][]byte{"MapReaversPassHex": []byte("hdr")})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// Fold maps "ß" to "ss", so both spellings reach the same template.
	for _, name := range []string{"mapreaverspasshex", "MapReaversPaßHex", "MAPREAVERSPASSHEX"} {
		tmpl, err := cat.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", name, err)
		}
		if tmpl.Name != "MapReaversPassHex" {
			t.Errorf("Resolve(%q): expected canonical name MapReaversPassHex, got %q", name, tmpl.Name)
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	cat, err := New(map[string][]byte{"MapOnyxHex": {1}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, name := range []string{"MapNowhereHex", "", "mapnowherehex"} {
		if _, err := cat.Resolve(name); !errors.Is(err, ErrUnknownName) {
			t.Errorf("Resolve(%q): expected ErrUnknownName, got %v", name, err)
		}
	}
}

func TestNew_RejectsCaseDuplicates(t *testing.T) {
	_, err := New(map[string][]byte{"MapOnyxHex": {1}, "MAPONYXHEX": {2}})
	if err == nil {
		t.Error("Expected error for names differing only in case")
	}
}
