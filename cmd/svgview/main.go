package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"

	"svgtrav/pkg/config"
	"svgtrav/pkg/raster"
	"svgtrav/pkg/svgdoc"
)

// tick is how often the viewer advances a suspended layout.
const tick = 16 * time.Millisecond

// viewer shows one document at a time. Every access to the document
// happens on the fyne event goroutine.
type viewer struct {
	cfg    *config.Config
	log    *log.Logger
	win    fyne.Window
	img    *canvas.Image
	status *widget.Label

	doc      *svgdoc.Document
	renderer *raster.Renderer
	job      *svgdoc.Job
	stop     chan struct{}
}

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: svgview [flags] [file-or-url]\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if cfg.Traverse.TimeSlice.Duration == 0 {
		cfg.Traverse.TimeSlice.Duration = 4 * time.Millisecond
	}
	level, _ := cfg.LogLevel()

	a := app.New()
	v := &viewer{
		cfg:    cfg,
		log:    log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05.00", Level: level}),
		win:    a.NewWindow("svgview"),
		img:    canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1))),
		status: widget.NewLabel("Enter a file or URL and press Enter"),
	}
	v.img.FillMode = canvas.ImageFillOriginal
	v.win.Resize(fyne.NewSize(800, 600))

	location := widget.NewEntry()
	location.SetPlaceHolder("drawing.svg or https://example.com/drawing.svg")
	location.OnSubmitted = v.open

	point := widget.NewEntry()
	point.SetPlaceHolder("x,y")
	point.OnSubmitted = v.hitTest

	cancel := widget.NewButton("Cancel", v.cancel)

	top := container.NewBorder(nil, nil, nil, container.NewHBox(cancel), location)
	bottom := container.NewBorder(nil, nil, nil, container.NewGridWrap(fyne.NewSize(120, 36), point), v.status)
	v.win.SetContent(container.NewBorder(top, bottom, nil, nil, container.NewScroll(v.img)))
	v.win.Canvas().Focus(location)

	if flag.NArg() > 0 {
		location.SetText(flag.Arg(0))
		v.open(flag.Arg(0))
	}
	v.win.ShowAndRun()
}

// open loads uri and starts a time-sliced layout of it.
func (v *viewer) open(uri string) {
	v.cancel()
	doc, err := svgdoc.Load(uri, v.cfg.DocumentOptions(v.log.With("doc", uri)))
	if err != nil {
		v.status.SetText("Error: " + err.Error())
		return
	}
	job, err := doc.StartLayout()
	if err != nil {
		v.status.SetText("Error: " + err.Error())
		return
	}
	w, h := doc.Size()
	v.doc, v.job = doc, job
	v.renderer = v.cfg.NewRenderer(w, h, doc.Options.Measurer)
	v.img.Image = v.renderer.Image()
	v.img.SetMinSize(fyne.NewSize(float32(w), float32(h)))
	v.win.SetTitle("svgview: " + uri)
	v.status.SetText("Loading " + uri + "...")

	stop := make(chan struct{})
	v.stop = stop
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fyne.Do(func() {
					if v.stop == stop {
						v.step()
					}
				})
			}
		}
	}()
}

// step advances the layout by one slice and shows what is built so far.
func (v *viewer) step() {
	done, err := v.job.Step()
	v.renderer.Render(v.doc.RenderRoot)
	v.img.Refresh()
	if !done {
		v.status.SetText(fmt.Sprintf("Laying out... %d slices", v.job.Steps))
		return
	}
	v.stopTicker()
	if err != nil {
		v.status.SetText("Error: " + err.Error())
	} else {
		v.status.SetText(fmt.Sprintf("Done in %d slices", v.job.Steps))
	}
	v.job = nil
}

func (v *viewer) stopTicker() {
	if v.stop != nil {
		close(v.stop)
		v.stop = nil
	}
}

// cancel abandons a layout in progress.
func (v *viewer) cancel() {
	v.stopTicker()
	if v.job != nil {
		v.job.Cancel()
		v.status.SetText(fmt.Sprintf("Canceled after %d slices", v.job.Steps))
		v.job = nil
	}
}

// hitTest reports the elements under the point typed as "x,y".
func (v *viewer) hitTest(text string) {
	if v.doc == nil {
		return
	}
	xs, ys, ok := strings.Cut(text, ",")
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if !ok || errX != nil || errY != nil {
		v.status.SetText("Expected x,y")
		return
	}
	hits, err := v.doc.HitTest(x, y)
	if err != nil {
		v.status.SetText("Error: " + err.Error())
		return
	}
	if len(hits) == 0 {
		v.status.SetText(fmt.Sprintf("Nothing at %g,%g", x, y))
		return
	}
	var names []string
	for _, n := range hits {
		name := n.TagName
		if id := n.ID(); id != "" {
			name += "#" + id
		}
		names = append(names, name)
	}
	v.status.SetText(fmt.Sprintf("At %g,%g: %s", x, y, strings.Join(names, " > ")))
}
