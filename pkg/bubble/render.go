// Package bubble composes a chat-message-style sticker image from quoted
// text: background, name badge, circular avatar, message bubble and a
// timestamp stamp.
package bubble

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	CanvasSize = 512

	// Body text wraps hard at this many characters per line.
	BodyWrapWidth = 32
	// The name badge wraps word-aware at this shorter width.
	NameWrapWidth = 18

	bubbleX      = 40
	bubbleY      = 60
	bubbleWidth  = 432
	bubbleRadius = 28

	nameBoxMinWidth = 120
	nameBoxMaxWidth = 340
	nameBoxY        = 22

	avatarCX = 70
	avatarCY = 90
	avatarR  = 28
)

var (
	bgColor     = color.RGBA{0xec, 0xe5, 0xdd, 0xff}
	bubbleColor = color.RGBA{0xdc, 0xf8, 0xc6, 0xff}
	badgeColor  = color.RGBA{0xd1, 0xf0, 0xe2, 0xff}
	bodyColor   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	nameColor   = color.RGBA{0x07, 0x5e, 0x54, 0xff}
	timeColor   = color.RGBA{0x88, 0x88, 0x88, 0xff}
	avatarGray  = color.RGBA{0xbd, 0xbd, 0xbd, 0xff}
)

// Spec is the full input of a render. Rendering is a pure function of it.
type Spec struct {
	DisplayName string
	BodyText    string
	Avatar      image.Image // nil falls back to the default avatar
	Timestamp   time.Time
}

var (
	fontOnce sync.Once
	fontErr  error
	bodyFace font.Face
	nameFace font.Face
	timeFace font.Face

	// opentype faces cache glyphs and are not safe for concurrent use.
	renderMu sync.Mutex
)

func loadFaces() error {
	fontOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse regular font: %w", err)
			return
		}
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse bold font: %w", err)
			return
		}
		bodyFace, fontErr = opentype.NewFace(regular, &opentype.FaceOptions{Size: 30, DPI: 72, Hinting: font.HintingFull})
		if fontErr != nil {
			return
		}
		nameFace, fontErr = opentype.NewFace(bold, &opentype.FaceOptions{Size: 22, DPI: 72, Hinting: font.HintingFull})
		if fontErr != nil {
			return
		}
		timeFace, fontErr = opentype.NewFace(regular, &opentype.FaceOptions{Size: 22, DPI: 72, Hinting: font.HintingFull})
	})
	return fontErr
}

// Render composes the bubble image. It holds no state: the same Spec always
// produces the same image.
func Render(spec Spec) (image.Image, error) {
	if err := loadFaces(); err != nil {
		return nil, err
	}
	renderMu.Lock()
	defer renderMu.Unlock()

	body := HardWrap(Sanitize(spec.BodyText), BodyWrapWidth)
	nameLines := WordWrap(Sanitize(spec.DisplayName), NameWrapWidth)

	bubbleHeight := 40 + len(body)*38

	nameBoxWidth := 32 + longestLine(nameLines)*18
	if nameBoxWidth < nameBoxMinWidth {
		nameBoxWidth = nameBoxMinWidth
	}
	if nameBoxWidth > nameBoxMaxWidth {
		nameBoxWidth = nameBoxMaxWidth
	}
	nameBoxHeight := 20 + len(nameLines)*28
	nameBoxX := CanvasSize/2 - nameBoxWidth/2

	img := image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)

	fillRoundedRect(img, image.Rect(nameBoxX, nameBoxY, nameBoxX+nameBoxWidth, nameBoxY+nameBoxHeight), 14, badgeColor)
	for i, line := range nameLines {
		drawCenteredText(img, nameFace, nameColor, CanvasSize/2, nameBoxY+20+(i+1)*24, line)
	}

	fillRoundedRect(img, image.Rect(bubbleX, bubbleY, bubbleX+bubbleWidth, bubbleY+bubbleHeight), bubbleRadius, bubbleColor)

	avatar := spec.Avatar
	if avatar == nil {
		avatar = defaultAvatar()
	}
	drawCircularAvatar(img, avatar)

	for i, line := range body {
		drawText(img, bodyFace, bodyColor, 60, 130+i*38, line)
	}

	drawText(img, timeFace, timeColor, 420, bubbleHeight+50, spec.Timestamp.Format("15:04"))

	return img, nil
}

// defaultAvatar is a flat gray disc used when no profile picture could be
// fetched.
func defaultAvatar() image.Image {
	size := avatarR * 2
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(avatarGray), image.Point{}, draw.Src)
	return img
}

func drawCircularAvatar(dst *image.RGBA, avatar image.Image) {
	size := avatarR * 2
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), avatar, avatar.Bounds(), xdraw.Src, nil)

	mask := circleMask(size)
	target := image.Rect(avatarCX-avatarR, avatarCY-avatarR, avatarCX+avatarR, avatarCY+avatarR)
	draw.DrawMask(dst, target, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

func circleMask(size int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	r := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := x-r, y-r
			if dx*dx+dy*dy <= r*r {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return mask
}

func fillRoundedRect(dst *image.RGBA, rect image.Rectangle, radius int, c color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if insideRounded(x, y, rect, radius) {
				dst.Set(x, y, c)
			}
		}
	}
}

func insideRounded(x, y int, rect image.Rectangle, radius int) bool {
	cx, cy := x, y
	switch {
	case x < rect.Min.X+radius && y < rect.Min.Y+radius:
		cx, cy = rect.Min.X+radius, rect.Min.Y+radius
	case x >= rect.Max.X-radius && y < rect.Min.Y+radius:
		cx, cy = rect.Max.X-radius-1, rect.Min.Y+radius
	case x < rect.Min.X+radius && y >= rect.Max.Y-radius:
		cx, cy = rect.Min.X+radius, rect.Max.Y-radius-1
	case x >= rect.Max.X-radius && y >= rect.Max.Y-radius:
		cx, cy = rect.Max.X-radius-1, rect.Max.Y-radius-1
	default:
		return true
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}

func drawText(dst *image.RGBA, face font.Face, c color.Color, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func drawCenteredText(dst *image.RGBA, face font.Face, c color.Color, centerX, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{X: fixed.I(centerX) - width/2, Y: fixed.I(y)}
	d.DrawString(text)
}
