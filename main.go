package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hesusruiz/cmark/cmark"
	"github.com/hesusruiz/cmark/spectest"
	"github.com/hesusruiz/vcutils/yaml"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// settings are the conversion options collected from the command line
// and the configuration file.
type settings struct {
	format      string
	smart       bool
	safe        bool
	sourcepos   bool
	softbreak   string
	highlight   bool
	style       string
	diagrams    bool
	cacheDir    string
	frontmatter bool
	template    string
}

// converter parses Markdown and renders it in the requested format.
type converter struct {
	settings
	parser *cmark.Parser
	html   *cmark.HTMLRenderer
	xml    *cmark.XMLRenderer
	log    *zap.SugaredLogger
}

func newConverter(s settings, logger *zap.SugaredLogger) *converter {
	return &converter{
		settings: s,
		parser:   cmark.NewParser(cmark.Options{Smart: s.smart, Logger: logger}),
		html: cmark.NewHTMLRenderer(cmark.HTMLOptions{
			Safe:            s.safe,
			SourcePos:       s.sourcepos,
			Softbreak:       s.softbreak,
			Highlight:       s.highlight,
			HighlightStyle:  s.style,
			Diagrams:        s.diagrams,
			DiagramCacheDir: s.cacheDir,
			Logger:          logger,
		}),
		xml: cmark.NewXMLRenderer(cmark.XMLOptions{SourcePos: s.sourcepos}),
		log: logger,
	}
}

// Convert turns the Markdown source into the output document.
func (cv *converter) Convert(src []byte) ([]byte, error) {
	var config *yaml.YAML
	var err error

	if cv.frontmatter {
		config, src, err = cmark.SplitFrontMatter(src)
	} else {
		config, err = yaml.ParseYaml("")
	}
	if err != nil {
		cv.log.Errorw("error reading document metadata", "error", err)
		return nil, err
	}

	doc := cv.parser.Parse(src)

	var out []byte
	switch cv.format {
	case "xml":
		out = cv.xml.Render(doc)
	case "html", "":
		out = cv.html.Render(doc)
	default:
		return nil, fmt.Errorf("unknown output format %q", cv.format)
	}

	// Get the name of the template, from the metadata or the command line
	templateName := config.String("template", cv.template)
	if len(templateName) == 0 || cv.format == "xml" {
		return out, nil
	}
	return cv.applyTemplate(templateName, out, config)
}

// applyTemplate builds the full document with the template, replacing the
// content and title placeholders.
func (cv *converter) applyTemplate(templateName string, content []byte, config *yaml.YAML) ([]byte, error) {
	tmpl, err := os.ReadFile(templateName)
	if err != nil {
		cv.log.Errorw("error reading template", "error", err, "name", templateName)
		return nil, err
	}
	page := bytes.Replace(tmpl, []byte("HERE_GOES_THE_CONTENT"), content, 1)

	title := config.String("title", "title")
	replacer := strings.NewReplacer("{#title}", title)
	return []byte(replacer.Replace(string(page))), nil
}

// processFile converts one file, writing the result unless dryrun is set.
// An output name of "-" means standard output.
func (cv *converter) processFile(inputFileName, outputFileName string, dryrun bool) error {
	src, err := os.ReadFile(inputFileName)
	if err != nil {
		return err
	}

	out, err := cv.Convert(src)
	if err != nil {
		return fmt.Errorf("%s: %w", inputFileName, err)
	}

	if dryrun {
		return nil
	}
	if outputFileName == "-" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outputFileName, out, 0664)
}

// processWatch checks periodically if an input file (inputFileName) has been modified, and if so
// it processes the file and writes the result to the output file (outputFileName)
func (cv *converter) processWatch(inputFileName string, outputFileName string) error {

	var oldTimestamp time.Time

	// Loop forever
	for {

		// Get the modified timestamp of the input file
		info, err := os.Stat(inputFileName)
		if err != nil {
			return err
		}
		currentTimestamp := info.ModTime()

		// If current modified timestamp is newer than the previous timestamp, process the file
		if oldTimestamp.Before(currentTimestamp) {
			oldTimestamp = currentTimestamp
			fmt.Println("************Processing*************")
			if err := cv.processFile(inputFileName, outputFileName, false); err != nil {
				// Keep watching, the next save may fix it
				cv.log.Errorw("conversion failed", "error", err)
			}
		}

		// Check again in one second
		time.Sleep(1 * time.Second)

	}
}

// newLogger sets up the logging system
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var z *zap.Logger
	var err error
	if debug {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}

// loadSettings merges the configuration file (keys under "cmark") with the
// command line flags. Flags set explicitly win.
func loadSettings(c *cli.Context) (settings, error) {
	configText := ""
	name := c.String("config")
	if len(name) > 0 {
		data, err := os.ReadFile(name)
		if err != nil {
			return settings{}, err
		}
		configText = string(data)
	}
	config, err := yaml.ParseYaml(configText)
	if err != nil {
		return settings{}, fmt.Errorf("malformed config file %s: %w", name, err)
	}

	str := func(flag string) string {
		if c.IsSet(flag) {
			return c.String(flag)
		}
		return config.String("cmark."+flag, c.String(flag))
	}
	boolean := func(flag string) bool {
		if c.IsSet(flag) {
			return c.Bool(flag)
		}
		v := config.String("cmark."+flag, "")
		if len(v) == 0 {
			return c.Bool(flag)
		}
		b, perr := strconv.ParseBool(v)
		if perr != nil && err == nil {
			err = fmt.Errorf("config key cmark.%s: %w", flag, perr)
		}
		return b
	}

	s := settings{
		format:      str("format"),
		smart:       boolean("smart"),
		safe:        boolean("safe"),
		sourcepos:   boolean("sourcepos"),
		softbreak:   str("softbreak"),
		highlight:   boolean("highlight"),
		style:       str("style"),
		diagrams:    boolean("diagrams"),
		cacheDir:    str("diagram-cache"),
		frontmatter: boolean("frontmatter"),
		template:    str("template"),
	}
	return s, err
}

// process is the main entry point of the program
func process(c *cli.Context) error {

	// Default input file name
	var inputFileName = "index.md"

	// Output file name command line parameter
	outputFileName := c.String("output")

	// Dry run
	dryrun := c.Bool("dryrun")

	sugar, err := newLogger(c.Bool("debug"))
	if err != nil {
		return err
	}
	defer sugar.Sync()

	s, err := loadSettings(c)
	if err != nil {
		return err
	}

	// Get the input file name
	if c.Args().Present() {
		inputFileName = c.Args().First()
	} else {
		fmt.Fprintf(os.Stderr, "no input file provided, using \"%v\"\n", inputFileName)
	}

	// Generate the output file name
	if len(outputFileName) == 0 {
		newExt := "." + s.format
		if s.format == "" {
			newExt = ".html"
		}
		ext := path.Ext(inputFileName)
		if len(ext) == 0 {
			outputFileName = inputFileName + newExt
		} else {
			outputFileName = strings.TrimSuffix(inputFileName, ext) + newExt
		}
	}

	// Print a message
	if dryrun {
		fmt.Fprintf(os.Stderr, "dry run: processing %v without writing output\n", inputFileName)
	} else if outputFileName != "-" {
		fmt.Printf("processing %v and generating %v\n", inputFileName, outputFileName)
	}

	cv := newConverter(s, sugar)

	// If the user specified to watch, loop forever processing the input file when modified
	if c.Bool("watch") {
		return cv.processWatch(inputFileName, outputFileName)
	}

	return cv.processFile(inputFileName, outputFileName, dryrun)
}

// runSpec checks the parser against spec files and, optionally, the
// pathological inputs.
func runSpec(c *cli.Context) error {
	sugar, err := newLogger(c.Bool("debug"))
	if err != nil {
		return err
	}
	defer sugar.Sync()

	parser := cmark.NewParser(cmark.Options{Smart: c.Bool("smart"), Logger: sugar})
	renderer := cmark.NewHTMLRenderer(cmark.HTMLOptions{Logger: sugar})

	runner := &spectest.Runner{
		Convert: func(md string) string { return renderer.RenderString(parser.ParseString(md)) },
		Out:     os.Stdout,
		Verbose: c.Bool("verbose"),
		Log:     sugar,
	}

	var total spectest.Result
	for _, name := range c.Args().Slice() {
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		fmt.Printf("Spec tests [%s]:\n", name)
		total.Add(runner.Run(spectest.Extract(data)))
	}

	if c.Bool("pathological") {
		fmt.Println("Pathological cases:")
		total.Add(runner.RunCases(spectest.Pathological()))
	}

	fmt.Println(total)
	if total.Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// convertFlags are the options of the default action.
func convertFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "write output to `FILE` (default is input file name with the format extension, - for stdout)",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "html",
			Usage: "output format, html or xml",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "read default options from the YAML `FILE`, under the cmark key",
		},
		&cli.BoolFlag{
			Name:  "smart",
			Usage: "use smart punctuation",
		},
		&cli.BoolFlag{
			Name:  "safe",
			Usage: "omit raw HTML and potentially unsafe links",
		},
		&cli.BoolFlag{
			Name:  "sourcepos",
			Usage: "include source positions in the output",
		},
		&cli.StringFlag{
			Name:  "softbreak",
			Usage: "write `STRING` for soft line breaks (default is a newline)",
		},
		&cli.BoolFlag{
			Name:  "highlight",
			Usage: "highlight fenced code blocks",
		},
		&cli.StringFlag{
			Name:  "style",
			Value: "github",
			Usage: "highlighting style `NAME`",
		},
		&cli.BoolFlag{
			Name:  "diagrams",
			Usage: "render d2 code blocks as SVG diagrams",
		},
		&cli.StringFlag{
			Name:  "diagram-cache",
			Usage: "keep rendered diagrams in `DIR`, named by the hash of their source",
		},
		&cli.BoolFlag{
			Name:  "frontmatter",
			Usage: "read a YAML header delimited by --- lines",
		},
		&cli.StringFlag{
			Name:  "template",
			Usage: "wrap the HTML in the template `FILE`, replacing HERE_GOES_THE_CONTENT",
		},
		&cli.BoolFlag{
			Name:    "dryrun",
			Aliases: []string{"n"},
			Usage:   "do not generate output file, just process input file",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "run in debug mode",
		},
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "watch the file for changes",
		},
	}
}

func main() {

	app := &cli.App{
		Name:     "cmark",
		Version:  "v0.1.0",
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name:  "Jesus Ruiz",
				Email: "hesus.ruiz@gmail.com",
			},
		},
		Usage:     "convert a CommonMark document to HTML or XML",
		UsageText: "cmark [options] [INPUT_FILE] (default input file is index.md)",
		Action:    process,
		ArgsUsage: "INPUT_FILE",
		Flags:     convertFlags(),
		Commands: []*cli.Command{
			{
				Name:      "spec",
				Usage:     "run the examples of CommonMark spec files",
				ArgsUsage: "FILE...",
				Action:    runSpec,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "smart",
						Usage: "use smart punctuation",
					},
					&cli.BoolFlag{
						Name:  "pathological",
						Usage: "also run the pathological inputs",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "print every passing example",
					},
					&cli.BoolFlag{
						Name:    "debug",
						Aliases: []string{"d"},
						Usage:   "run in debug mode",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
