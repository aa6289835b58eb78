package sugarcube

import "twee-engine/formats"

// init registra automaticamente il formato SugarCube.
// Viene chiamato quando il package viene importato.
func init() {
	formats.RegisterFormat("sugarcube", func() formats.StoryFormat {
		return NewSugarCubeFormat()
	})

	// Alias per chi ragiona in termini di versione del formato Twee
	formats.RegisterFormat("twee1", func() formats.StoryFormat {
		return NewSugarCubeFormat()
	})
}
