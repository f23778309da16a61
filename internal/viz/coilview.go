package viz

import (
	"math"

	"github.com/san-kum/coilgun/internal/coilgun"
	"github.com/san-kum/coilgun/internal/genome"
)

// CoilView is the side cut of a solenoid and its projectile, in metres
// with the coil centre at 0.
type CoilView struct {
	Length float64
	Radius float64
	Start  float64
	End    *float64
}

// CoilViewFromDNA reads the geometry genes of a coilgun genome. The second
// result is false when a gene is missing.
func CoilViewFromDNA(d *genome.DNA) (CoilView, bool) {
	if d == nil {
		return CoilView{}, false
	}
	length, ok1 := d.Get(coilgun.GeneLength)
	radius, ok2 := d.Get(coilgun.GeneRadius)
	start, ok3 := d.Get(coilgun.GeneStartPosition)
	if !ok1 || !ok2 || !ok3 {
		return CoilView{}, false
	}
	v := CoilView{Length: length, Radius: radius, Start: start}
	if end, ok := d.Get(coilgun.GeneEndPosition); ok {
		v.End = &end
	}
	return v, true
}

// Draw renders the view onto c. The horizontal scale fits the coil and
// both projectile positions; the vertical scale fits twice the radius.
func (v CoilView) Draw(c *Canvas) {
	c.Clear()
	pw, ph := c.Pixels()
	if pw < 8 || ph < 8 || v.Length <= 0 || v.Radius <= 0 {
		return
	}

	span := math.Max(v.Length/2, math.Abs(v.Start))
	if v.End != nil {
		span = math.Max(span, math.Abs(*v.End))
	}
	span *= 1.1

	px := func(x float64) int {
		return int(math.Round((x + span) / (2 * span) * float64(pw-1)))
	}
	midY := ph / 2
	rPix := int(float64(ph) * 0.35)
	wall := max(ph/16, 1)

	x0, x1 := px(-v.Length/2), px(v.Length/2)
	c.FillRect(x0, midY-rPix-wall, x1, midY-rPix)
	c.FillRect(x0, midY+rPix, x1, midY+rPix+wall)

	c.DashLine(0, pw-1, midY, 2)

	// projectile slug, drawn a quarter of the coil long
	slug := max(px(v.Length/8)-px(0), 1)
	ps := px(v.Start)
	c.FillRect(ps-slug, midY-rPix/3, ps+slug, midY+rPix/3)

	if v.End != nil {
		pe := px(*v.End)
		c.DrawLine(pe, midY-rPix-wall, pe, midY+rPix+wall)
	}
}

// Render draws the view on a fresh canvas of w x h cells.
func (v CoilView) Render(w, h int) string {
	c := NewCanvas(w, h)
	v.Draw(c)
	return c.String()
}
