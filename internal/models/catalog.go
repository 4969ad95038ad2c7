package models

// Grapes and countries accepted for the identification fields of an evaluation.
var grapes = setOf(
	"cabernet_sauvignon", "merlot", "pinot_noir", "syrah", "malbec", "tempranillo",
	"sangiovese", "nebbiolo", "grenache", "carmenere", "tannat", "touriga_nacional",
	"zinfandel", "cabernet_franc", "chardonnay", "sauvignon_blanc", "riesling",
	"chenin_blanc", "pinot_grigio", "gewurztraminer", "viognier", "alvarinho",
	"torrontes", "moscato", "semillon", "glera",
)

var countries = setOf(
	"argentina", "australia", "austria", "brazil", "chile", "france", "germany",
	"italy", "new_zealand", "portugal", "south_africa", "spain", "uruguay", "usa",
)

func setOf(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
