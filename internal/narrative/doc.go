// Package narrative turns relationship facts into sentences and a prompt for a
// text-generation model, and talks to that model.
//
// Rendering is a template concern kept out of the spatial engine: the engine
// emits structured facts, this package words them. The empty-list
// placeholders a reader sees ("No specific objects detected.") are also
// substituted here.
package narrative
