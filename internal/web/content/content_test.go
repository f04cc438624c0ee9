package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	require.Equal(t, "EcoNest", s.Brand.Name)
	require.Len(t, s.Pricing.Plans, 3)
	require.NotEmpty(t, s.Integrations)
	require.Equal(t, []string{"battery", "solar", "meter", "thermostat", "tariff"}, s.Categories())

	solar := s.InCategory("solar")
	require.Len(t, solar, 1)
	require.Equal(t, "enphase", solar[0].ID)
	require.Empty(t, s.InCategory("bogus"))
}

func TestPlanPrice(t *testing.T) {
	require.Equal(t, "Free", Plan{}.Price("USD"))
	require.Equal(t, "$9", Plan{MonthlyCents: 900}.Price("USD"))
	require.Equal(t, "$9.50", Plan{MonthlyCents: 950}.Price(""))
	require.Equal(t, "EUR 29", Plan{MonthlyCents: 2900}.Price("EUR"))
}

func TestParseRejects(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := Parse([]byte("brand:\n  name: X\n  colour: green\n"))
		require.Error(t, err)
	})

	t.Run("missing brand", func(t *testing.T) {
		_, err := Parse([]byte("hero:\n  title: Hi\n"))
		require.ErrorContains(t, err, "brand.name")
	})

	t.Run("duplicate plan", func(t *testing.T) {
		doc := "brand: {name: X}\npricing:\n  plans:\n    - {id: a, name: A}\n    - {id: a, name: B}\n"
		_, err := Parse([]byte(doc))
		require.ErrorContains(t, err, "duplicate id")
	})
}

func TestLoad(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "EcoNest", s.Brand.Name)

	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brand:\n  name: GreenHome\n"), 0o600))
	s, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "GreenHome", s.Brand.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
