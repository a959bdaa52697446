package validator

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/orcafacil/backend/internal/domain/importer/mapper"
	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
)

// Device categories are inferred from keyword hits in the model and issue
// text. Smartphones dominate repair-shop volume, so they are the fallback
// when nothing matches.
const (
	DeviceSmartphone = "Smartphone"
	DeviceTablet     = "Tablet"
	DeviceNotebook   = "Notebook"
	DeviceSmartwatch = "Smartwatch"
	DeviceConsole    = "Console"
)

var deviceMatchers = []struct {
	category string
	matcher  *ahocorasick.Matcher
}{
	{DeviceTablet, ahocorasick.NewStringMatcher([]string{
		"ipad", "tablet", "galaxy tab", "tab a", "tab s",
	})},
	{DeviceNotebook, ahocorasick.NewStringMatcher([]string{
		"notebook", "macbook", "laptop", "ideapad", "thinkpad", "vostro",
		"inspiron", "aspire", "chromebook",
	})},
	{DeviceSmartwatch, ahocorasick.NewStringMatcher([]string{
		"watch", "amazfit", "smartband", "mi band",
	})},
	{DeviceConsole, ahocorasick.NewStringMatcher([]string{
		"playstation", "xbox", "nintendo", "ps4", "ps5", "switch",
	})},
	{DeviceSmartphone, ahocorasick.NewStringMatcher([]string{
		"iphone", "galaxy", "xiaomi", "redmi", "poco", "moto", "celular",
		"smartphone", "samsung", "realme",
	})},
}

// inferDeviceType guesses the device category from the cleaned model and
// issue fields. Specific categories are tried before Smartphone because
// "galaxy tab" would otherwise hit the smartphone keyword "galaxy" first.
func inferDeviceType(data map[string]string) string {
	text := normalizer.NormalizeText(
		data[mapper.FieldDeviceModel] + " " + data[mapper.FieldDeviceIssue])
	if text == "" {
		return ""
	}
	for _, dm := range deviceMatchers {
		if len(dm.matcher.Match([]byte(text))) > 0 {
			return dm.category
		}
	}
	return DeviceSmartphone
}
