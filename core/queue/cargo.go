package queue

import (
	"strings"

	"github.com/milops/convoyd/core/model"
)

// cargoKeywords maps convoy naming conventions to cargo classes. Evaluated
// in order; the first keyword contained in the name wins.
var cargoKeywords = []struct {
	keyword string
	class   model.CargoClass
}{
	{"CASEVAC", model.CargoEvacuation},
	{"MEDEVAC", model.CargoEvacuation},
	{"EVAC", model.CargoEvacuation},
	{"MED", model.CargoMedical},
	{"AMMO", model.CargoAmmunition},
	{"AMMUNITION", model.CargoAmmunition},
	{"FUEL", model.CargoFuel},
	{"POL", model.CargoFuel},
	{"WATER", model.CargoWater},
	{"RATION", model.CargoRations},
	{"FOOD", model.CargoRations},
	{"PAX", model.CargoPersonnel},
	{"TROOP", model.CargoPersonnel},
	{"PERS", model.CargoPersonnel},
	{"ENG", model.CargoEngineering},
	{"BRIDGE", model.CargoEngineering},
	{"SAPPER", model.CargoEngineering},
}

// InferCargo classifies a convoy by its name against the fixed keyword
// table. Unmatched names default to STORES.
func InferCargo(name string) model.CargoClass {
	upper := strings.ToUpper(name)
	for _, kw := range cargoKeywords {
		if strings.Contains(upper, kw.keyword) {
			return kw.class
		}
	}
	return model.CargoStores
}
