package output

import (
	"fmt"

	"github.com/mbndr/figlet4go"
)

// ShowBanner prints the startup banner, grounded directly in the
// teacher's internal/ui.ShowBanner: same figlet4go render-with-fallback
// shape, same "print plain text if rendering fails" guard, restyled for
// kopi's own name and tagline.
func (p *Printer) ShowBanner() {
	render := figlet4go.NewAsciiRender()
	options := figlet4go.NewRenderOptions()
	options.FontName = "standard"

	rendered, err := render.RenderOpts("kopi", options)
	if err != nil || rendered == "" {
		p.Section("kopi - JDK version manager")
	} else {
		fmt.Fprint(p.Out, sectionColor.Sprint(rendered))
	}
	p.Info("flexible version matching, cross-process locking, multi-source metadata")
}
