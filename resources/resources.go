/*
Package resources provides fonts embedded in the application binary.

Applications that must render predictably on any host ship a small set of
fonts as part of the binary itself. This package exposes those fonts as font
buffers with the resource pool as their owner, ready to be added to a
catalog. The pool never releases its buffers, so the buffers stay valid for
the lifetime of the process.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package resources

import (
	"github.com/npillmayer/fontcatalog"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Pool is the set of fonts compiled into the application binary.
type Pool struct {
	fonts []fontcatalog.FontBuffer
}

// Binary returns the pool of binary-embedded fonts.
func Binary() *Pool {
	p := &Pool{}
	p.fonts = []fontcatalog.FontBuffer{
		{Data: goregular.TTF, Owner: p},
		{Data: gobold.TTF, Owner: p},
	}
	return p
}

// Tag is part of interface fontcatalog.Owner.
func (p *Pool) Tag() string {
	return "binary-resources"
}

// Fonts returns the embedded fonts as buffers owned by the pool.
func (p *Pool) Fonts() []fontcatalog.FontBuffer {
	return p.fonts
}
