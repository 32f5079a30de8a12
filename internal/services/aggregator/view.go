package aggregator

import (
	"github.com/ternarybob/finsaathi/internal/models"
	"github.com/ternarybob/finsaathi/internal/services/report"
)

// View builds the API representation of vm: headline cards, the narrative
// without its reasoning trace, and the trace itself as analysis steps.
func View(vm *models.ViewModel, generation uint64) *models.AnalysisView {
	if vm == nil {
		return nil
	}
	narrative := vm.NarrativeText()
	return &models.AnalysisView{
		ViewModel:     vm,
		Generation:    generation,
		Price:         Headline(vm.Basic.Series, FieldClose),
		Volume:        Headline(vm.Basic.Series, FieldVolume),
		Narrative:     report.RemoveThinkContent(narrative),
		AnalysisSteps: report.ExtractAnalysisSteps(narrative),
	}
}
