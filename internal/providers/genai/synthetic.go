package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"weaver/internal/catalog"
)

// syntheticVariation renders a deterministic placeholder composite so batches
// complete end-to-end without an API key. The seed folds in every generation
// input, so distinct prompts produce visually distinct results while repeat
// runs stay stable.
func (c *Client) syntheticVariation(req VariationRequest) string {
	seed := deterministicSeed(req.Prompt, req.NegativePrompt, len(req.Subject.Data), req.Subject.MIME)
	data := renderSyntheticImage(1024, 1024, seed)

	c.logger.Debug().
		Str("model", c.imageModel).
		Str("seed", seed).
		Msg("genai: generated synthetic variation")

	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(data))
}

// syntheticReply streams a canned brainstorm built from the prompt catalog.
func (c *Client) syntheticReply(ctx context.Context, message string, emit func(string) error) error {
	seed := deterministicSeed(message)
	idea := catalog.RandomPrompts[int(seed[0])%len(catalog.RandomPrompts)]

	fragments := []string{
		"Here's a direction worth weaving: ",
		fmt.Sprintf("**%s** ", strings.TrimSuffix(idea, ".")),
		"and try pairing it with one of the style presets for extra texture.",
	}
	for _, fragment := range fragments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(fragment); err != nil {
			return err
		}
	}
	return nil
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func renderSyntheticImage(width, height int, seed string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := maxInt(32, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, minInt(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	for i := 0; i < maxInt(width, height); i += maxInt(16, width/32) {
		for y := 0; y < height; y++ {
			xx := i + y
			if xx >= width {
				break
			}
			img.Set(xx, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	r := mustParseHexByte(segment[0:2])
	g := mustParseHexByte(segment[2:4])
	b := mustParseHexByte(segment[4:6])
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func mustParseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
