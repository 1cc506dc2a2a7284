package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "github.com/yanqian/disha/pkg/errors"
)

func TestServicesListsNationalHelplines(t *testing.T) {
	res := New(Config{}).Services(context.Background())

	require.Len(t, res.Services, 8)
	phones := make([]string, 0, len(res.Services))
	for _, s := range res.Services {
		phones = append(phones, s.Phone)
	}
	require.Equal(t, []string{"1070", "011-24363260", "100", "101", "102", "108", "1091", "1098"}, phones)

	ndrf := res.Services[1]
	require.Equal(t, "National Disaster Response Force (NDRF)", ndrf.Name)
	require.Equal(t, "tel:011-24363260", ndrf.CallURI)
	require.Equal(t, "sms:9711077372", ndrf.SMSURI)
}

func TestServicesConfiguredContacts(t *testing.T) {
	d := New(Config{Contacts: []Contact{{Name: "State EOC", Phone: "0712 256 2512"}}})

	res := d.Services(context.Background())
	require.Len(t, res.Services, 1)
	require.Equal(t, "tel:07122562512", res.Services[0].CallURI)
	require.Equal(t, "sms:07122562512", res.Services[0].SMSURI)
}

func TestServicesReturnsCopy(t *testing.T) {
	d := New(Config{})
	first := d.Services(context.Background())
	first.Services[0].Name = "changed"

	require.Equal(t, "Disaster Management Authority", d.Services(context.Background()).Services[0].Name)
}

func TestResources(t *testing.T) {
	res := New(Config{}).Resources(context.Background())

	require.Len(t, res.Resources, 8)
	require.Equal(t, Resource{Name: "Heavy Rainfall", Slug: "heavy-rainfall", Icon: "/heavy-rainfall.png"}, res.Resources[5])
	require.Equal(t, "health-kit", res.Resources[7].Slug)
}

func TestGuideReturnsTips(t *testing.T) {
	g, err := New(Config{}).Guide(context.Background(), "heavy-rainfall")
	require.NoError(t, err)
	require.Equal(t, "heavy-rainfall", g.Slug)
	require.Equal(t, "Heavy Rainfall Safety", g.Title)
	require.Equal(t, "/heavy-rainfall-safety.jpg", g.Image)
	require.Len(t, g.Tips, 4)
	require.Equal(t, "Be cautious of landslides.", g.Tips[2])

	kit, err := New(Config{}).Guide(context.Background(), "Health-Kit")
	require.NoError(t, err)
	require.Equal(t, "Emergency Health Kit", kit.Title)
	require.Equal(t, "/health-kit.jpg", kit.Image)
}

func TestGuideUnknownSlug(t *testing.T) {
	_, err := New(Config{}).Guide(context.Background(), "volcano")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Equal(t, "Information not found", apperrors.MessageOf(err))
}

func TestGuidesOverriddenFromYAML(t *testing.T) {
	raw := `
guides:
  flood:
    tips:
      - Move to the terrace or upper floor.
      - Switch off the main power supply.
  cyclone:
    name: Cyclone
    title: Cyclone Safety
    tips:
      - Listen to IMD bulletins.
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))
	d := New(cfg)
	ctx := context.Background()

	flood, err := d.Guide(ctx, "flood")
	require.NoError(t, err)
	require.Equal(t, "Flood Safety", flood.Title)
	require.Equal(t, []string{"Move to the terrace or upper floor.", "Switch off the main power supply."}, flood.Tips)

	cyclone, err := d.Guide(ctx, "cyclone")
	require.NoError(t, err)
	require.Equal(t, "Cyclone Safety", cyclone.Title)
	require.Equal(t, "/cyclone-safety.jpg", cyclone.Image)

	res := d.Resources(ctx)
	require.Len(t, res.Resources, 9)
	require.Equal(t, Resource{Name: "Cyclone", Slug: "cyclone", Icon: "/cyclone.png"}, res.Resources[8])
}

func TestGuideReturnsCopy(t *testing.T) {
	d := New(Config{})
	g, err := d.Guide(context.Background(), "flood")
	require.NoError(t, err)
	g.Tips[0] = "changed"

	again, err := d.Guide(context.Background(), "flood")
	require.NoError(t, err)
	require.Equal(t, "Move to higher ground.", again.Tips[0])
}
