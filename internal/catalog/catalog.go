// Package catalog holds the static prompt data consulted by the rest of the
// service: surprise-me prompts, style presets, rotating loading-status
// strings, and the assistant's conversation starters. The catalog itself is
// immutable; all selection state lives with the caller.
package catalog

import (
	"math/rand"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LoadingMessagePeriod is how long each loading message is shown before the
// rotation advances to the next one.
const LoadingMessagePeriod = 2500 * time.Millisecond

// RandomPrompts backs the "surprise me" control.
var RandomPrompts = []string{
	"A cyberpunk city street at night, neon signs reflecting on wet pavement.",
	"An enchanted forest library, with books growing on trees.",
	"A retro-futuristic diner on Mars, with a view of the stars.",
	"A tranquil Japanese garden with a koi pond and cherry blossoms.",
	"The interior of a grand, baroque-style spaceship bridge.",
	"A minimalist desert landscape at sunset, with long shadows.",
	"A whimsical candy land with chocolate rivers and lollipop trees.",
	"A steampunk workshop filled with gears, gadgets, and steam.",
	"An underwater city made of coral and bioluminescent plants.",
	"A post-apocalyptic wasteland with overgrown ruins of a modern city.",
}

// LoadingMessages rotate under pending variation cards while a batch runs.
var LoadingMessages = []string{
	"Warming up the AI brushes...",
	"Mixing the digital paints...",
	"Weaving the background threads...",
	"Consulting the muses of creativity...",
	"Adding the finishing touches...",
	"Rendering pixels into a masterpiece...",
}

// StarterPrompts seed an empty assistant conversation.
var StarterPrompts = []string{
	"Brainstorm background ideas for a fantasy character.",
	"How can I make my prompt 'a city street' more interesting?",
	"Suggest a surreal background concept.",
	"Give me some creative ideas for a product photoshoot background.",
}

// StylePreset is one clickable prompt enhancer. Fragment is appended to the
// user's prompt, never shown on its own.
type StylePreset struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Fragment string `json:"fragment"`
}

type presetSpec struct {
	key      string
	name     string // optional override when title-casing the key is wrong
	fragment string
}

var presetSpecs = []presetSpec{
	{key: "cinematic", fragment: "cinematic lighting, dramatic, high detail, 8k"},
	{key: "fantasy_art", fragment: "fantasy, painterly, intricate detail, epic, matte painting"},
	{key: "watercolor", fragment: "watercolor painting, soft, blended, artistic"},
	{key: "vintage_photo", fragment: "vintage photograph, sepia, grainy, 1940s style"},
	{key: "anime", fragment: "anime style, vibrant colors, cel-shaded, studio ghibli inspired"},
	{key: "cyberpunk", fragment: "cyberpunk, neon, futuristic, dystopian, high tech"},
	{key: "minimalist", fragment: "minimalist, clean, simple, solid color background"},
}

// stylePresets is built once at init; a cases.Caser is not safe for
// concurrent use, so the title-casing never happens on a request path.
var stylePresets = buildStylePresets()

func buildStylePresets() []StylePreset {
	titler := cases.Title(language.English)
	out := make([]StylePreset, 0, len(presetSpecs))
	for _, spec := range presetSpecs {
		name := spec.name
		if name == "" {
			name = titler.String(strings.ReplaceAll(spec.key, "_", " "))
		}
		out = append(out, StylePreset{Key: spec.key, Name: name, Fragment: spec.fragment})
	}
	return out
}

// StylePresets returns the ordered preset list. Order is stable and is the
// order the presets are rendered in.
func StylePresets() []StylePreset {
	out := make([]StylePreset, len(stylePresets))
	copy(out, stylePresets)
	return out
}

// StyleByKey looks up one preset.
func StyleByKey(key string) (StylePreset, bool) {
	for _, preset := range StylePresets() {
		if preset.Key == key {
			return preset, true
		}
	}
	return StylePreset{}, false
}

// RandomPrompt picks one surprise-me prompt with a uniform random index.
func RandomPrompt(rng *rand.Rand) string {
	if rng == nil {
		return RandomPrompts[rand.Intn(len(RandomPrompts))]
	}
	return RandomPrompts[rng.Intn(len(RandomPrompts))]
}

// LoadingMessage returns the rotating status string for the given elapsed
// generation time, wrapping around the list.
func LoadingMessage(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(elapsed/LoadingMessagePeriod) % len(LoadingMessages)
	return LoadingMessages[idx]
}

// ApplyStyle merges a preset fragment into an existing prompt. An empty
// prompt takes the fragment verbatim.
func ApplyStyle(prompt, fragment string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fragment
	}
	return prompt + ", " + fragment
}
