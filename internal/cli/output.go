package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/fatih/color"

	"github.com/kbukum/apicall/httpclient"
)

type printer struct {
	out     io.Writer
	errOut  io.Writer
	headers bool
	query   string

	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	red    func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	bold   func(a ...interface{}) string
}

func newPrinter(out, errOut io.Writer, noColor bool) *printer {
	color.NoColor = noColor
	return &printer{
		out:    out,
		errOut: errOut,
		green:  color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow: color.New(color.FgYellow, color.Bold).SprintFunc(),
		red:    color.New(color.FgRed, color.Bold).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
		bold:   color.New(color.Bold).SprintFunc(),
	}
}

func (p *printer) statusColor(code int) func(a ...interface{}) string {
	switch {
	case code >= 200 && code < 300:
		return p.green
	case code >= 300 && code < 400:
		return p.yellow
	default:
		return p.red
	}
}

// response prints the status line, optional headers and the body. With a
// query path set only the selected value is printed.
func (p *printer) response(resp *httpclient.Response) error {
	if p.query != "" {
		v := resp.Get(p.query)
		if !v.Exists() {
			return fmt.Errorf("path %q not found in response", p.query)
		}
		fmt.Fprintln(p.out, v.String())
		return nil
	}

	status := fmt.Sprintf("%d %s", resp.StatusCode, resp.StatusMessage)
	fmt.Fprintln(p.out, p.statusColor(resp.StatusCode)(status))

	if p.headers {
		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(p.out, "%s: %s\n", p.cyan(name), resp.Headers[name])
		}
		fmt.Fprintln(p.out)
	}

	body := resp.Text()
	if resp.HasJSON() {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(body), "", "  "); err == nil {
			body = buf.String()
		}
	}
	if body != "" {
		fmt.Fprintln(p.out, body)
	}
	return nil
}

// summary prints size and timing to the error stream.
func (p *printer) summary(backend string, resp *httpclient.Response, d time.Duration) {
	size := uint64(len(resp.Response.Bytes()))
	fmt.Fprintf(p.errOut, "%s %s in %dms via %s\n",
		p.bold("←"), bytefmt.ByteSize(size), d.Milliseconds(), backend)
}

// progress returns a callback drawing a percentage on the error stream.
func (p *printer) progress() httpclient.ProgressFunc {
	return func(percent float64) {
		fmt.Fprintf(p.errOut, "\r%s %5.1f%%", p.cyan("progress"), percent)
		if percent >= 100 {
			fmt.Fprintln(p.errOut)
		}
	}
}

func (p *printer) failure(err error) {
	fmt.Fprintf(p.errOut, "%s %v\n", p.red("error:"), err)
}
