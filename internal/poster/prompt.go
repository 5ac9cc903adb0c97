package poster

import "strings"

// characterClauses holds the wardrobe description for each gender. The array
// is sized by genderCount so a new Gender without a clause shows up as an
// empty entry in TestBuildPrompt.
var characterClauses = [genderCount]string{
	Boy:  "A Saudi teenage boy seen from the back, wearing white thobe and red-white shemagh,",
	Girl: "A Saudi teenage girl seen from the back, wearing pure black abaya and black headscarf,",
}

const characterSlot = "{{character}}"

// promptTemplate never carries the student's name or schedule: those are
// painted over the image by the compositor.
const promptTemplate = `Cinematic warm light poster background, vertical 4:5.
{{character}}
walking forward on a glowing golden learning path.
No face visible.
Scene:
On the left side, a cozy study desk with laptop, books and desk lamp,
the path starts from the desk and flows into a wide valley with distant city silhouettes,
bathed in sunset golden-hour light.
Lighting:
strong cinematic sunset rays, warm orange and gold glow,
soft bloom highlights, emotional film-like atmosphere.
Style:
high-end cartoon illustration, semi-realistic Pixar / Disney feeling,
smooth brush strokes, rich color depth, not tech style.
Color palette:
deep blue shadows with warm golden light,
clear contrast between left study area and right bright future path.
Layout:
student centered slightly right,
large clean blank space on the left for Arabic text and QR code.
Mood:
hopeful, emotional, aspirational, “my future is opening”.
No text inside image.`

// CharacterClause returns the wardrobe clause injected for g.
func CharacterClause(g Gender) string {
	if g < 0 || g >= genderCount {
		g = Boy
	}
	return characterClauses[g]
}

// BuildPrompt returns the image-generation prompt for g.
func BuildPrompt(g Gender) string {
	return strings.Replace(promptTemplate, characterSlot, CharacterClause(g), 1)
}
