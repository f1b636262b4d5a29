package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pyneda/sukyan-fileupload/lib"
	"github.com/pyneda/sukyan-fileupload/pkg/active"
	"github.com/pyneda/sukyan-fileupload/pkg/fileupload"
	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
	"github.com/pyneda/sukyan-fileupload/pkg/scan"
)

var requestFiles []string
var requestScheme string
var uploadURL string
var uploadFields []string
var uploadFiles []string
var uploadHeaders []string
var uploadCookies string
var staticLocationURIRegex string
var dynamicLocationURIRegex string
var dynamicLocationStartIdentifier string
var dynamicLocationEndIdentifier string
var uploadVectors []string
var uploadVectorsDirectory string
var uploadConcurrency int
var uploadBaseName string
var uploadSeed int64
var uploadFormat string
var uploadOutputDirectory string
var uploadSave bool

var validate = validator.New()

// UploadOptions holds the validated input of the upload command
type UploadOptions struct {
	RequestFiles []string `validate:"required_without=URL,dive,file"`
	Scheme       string   `validate:"omitempty,oneof=http https"`
	URL          string   `validate:"required_without=RequestFiles,omitempty,url"`
	Files        []string `validate:"required_with=URL"`
	Concurrency  int      `validate:"min=1,max=50"`
	BaseFileName string   `validate:"omitempty,alphanum,max=32"`
	Format       string   `validate:"required,oneof=pretty text json yaml table"`
}

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Audits a file upload endpoint",
	Long: `Replays an observed multipart upload request once per attack vector file, locates each
uploaded file and reports the ones the server executes or serves as active content.

The upload request can be read from a raw HTTP request file (as exported by an intercepting
proxy) or built from --url, --field and --file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("format") {
			uploadFormat = viper.GetString("output.format")
		}
		if len(requestFiles) > 0 {
			requestFiles = lib.GetUniqueItems(requestFiles)
		}
		options := UploadOptions{
			RequestFiles: requestFiles,
			Scheme:       requestScheme,
			URL:          uploadURL,
			Files:        uploadFiles,
			Concurrency:  resolveInt(uploadConcurrency, "fileupload.concurrency"),
			BaseFileName: resolveString(uploadBaseName, "fileupload.base_file_name"),
			Format:       strings.ToLower(uploadFormat),
		}
		if err := validate.Struct(options); err != nil {
			log.Error().Err(err).Msg("Validation failed")
			os.Exit(1)
		}
		format, err := lib.ParseFormatType(options.Format)
		if err != nil {
			log.Error().Err(err).Msg("Invalid output format")
			os.Exit(1)
		}

		targets, err := buildUploadTargets(options)
		if err != nil {
			log.Error().Err(err).Msg("Could not build the upload requests")
			os.Exit(1)
		}

		var rnd *rand.Rand
		if uploadSeed != 0 {
			rnd = rand.New(rand.NewSource(uploadSeed))
		}
		if uploadVectorsDirectory == "" {
			uploadVectorsDirectory = viper.GetString("fileupload.vectors_directory")
		}
		registry, err := fileupload.LoadRegistry(uploadVectorsDirectory, rnd)
		if err != nil {
			log.Error().Err(err).Msg("Could not load attack vectors")
			os.Exit(1)
		}
		if len(uploadVectors) == 0 {
			uploadVectors = viper.GetStringSlice("fileupload.vectors")
		}
		vectors, err := registry.Select(uploadVectors)
		if err != nil {
			log.Error().Err(err).Strs("available", registry.Names()).Msg("Invalid vector selection")
			os.Exit(1)
		}

		baseName := options.BaseFileName
		if baseName == "" {
			baseName = defaultBaseFileName()
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		audit := active.FileUploadAudit{
			Options: active.ActiveModuleOptions{
				Ctx:         ctx,
				Concurrency: options.Concurrency,
				Sender:      http_utils.NewSenderFromConfig(),
			},
			Targets:      targets,
			Vectors:      vectors,
			Locator:      locatorConfigFromFlags(),
			BaseFileName: baseName,
		}
		log.Info().Int("targets", len(targets)).Int("vectors", len(vectors)).Str("base_name", baseName).Msg("Starting file upload audit")
		findings, err := audit.Run()
		if err != nil {
			log.Error().Err(err).Msg("File upload audit finished with errors")
		}

		output, formatErr := lib.FormatOutput(findings, format)
		if formatErr != nil {
			log.Error().Err(formatErr).Msg("Error formatting output")
			os.Exit(1)
		}
		fmt.Println(output)

		if uploadSave {
			if err := saveFindings(findings, format, targets); err != nil {
				log.Error().Err(err).Msg("Could not save findings")
			}
		}
		if err != nil {
			os.Exit(1)
		}
	},
}

func resolveInt(flagValue int, key string) int {
	if flagValue > 0 {
		return flagValue
	}
	return viper.GetInt(key)
}

func resolveString(flagValue string, key string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(key)
}

// defaultBaseFileName derives a short run scoped prefix so uploads of different runs do not collide
func defaultBaseFileName() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// locatorConfigFromFlags starts from the configured locator and applies the command line overrides
func locatorConfigFromFlags() fileupload.LocatorConfig {
	config := fileupload.LocatorConfigFromViper()
	if staticLocationURIRegex != "" {
		config.StaticLocationURIRegex = staticLocationURIRegex
	}
	if dynamicLocationURIRegex != "" {
		config.DynamicLocationURIRegex = dynamicLocationURIRegex
	}
	if dynamicLocationStartIdentifier != "" {
		config.DynamicLocationStartIdentifier = dynamicLocationStartIdentifier
	}
	if dynamicLocationEndIdentifier != "" {
		config.DynamicLocationEndIdentifier = dynamicLocationEndIdentifier
	}
	return config
}

func buildUploadTargets(options UploadOptions) ([]*http_utils.Message, error) {
	var targets []*http_utils.Message
	for _, path := range options.RequestFiles {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		req, err := lib.ParseRawRequest(raw, options.Scheme)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		msg, err := http_utils.NewMessage(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		targets = append(targets, msg)
	}

	if options.URL != "" {
		fields, err := buildFormFields(uploadFields, options.Files)
		if err != nil {
			return nil, err
		}
		msg, err := scan.NewMultipartMessage(options.URL, fields)
		if err != nil {
			return nil, err
		}
		targets = append(targets, msg)
	}

	for _, msg := range targets {
		applyHeaders(msg, uploadHeaders)
		if uploadCookies != "" {
			msg.SetCookies(append(msg.Cookies(), http_utils.ParseCookies(uploadCookies)...))
		}
	}
	return targets, nil
}

// buildFormFields turns name=value and field=path flags into multipart fields, files last
func buildFormFields(values []string, files []string) ([]scan.FormField, error) {
	var fields []scan.FormField
	for _, value := range values {
		name, v, ok := strings.Cut(value, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q, expected name=value", value)
		}
		fields = append(fields, scan.FormField{Name: name, Value: v})
	}
	for _, file := range files {
		name, path, ok := strings.Cut(file, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid file %q, expected field=path", file)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		fields = append(fields, scan.FormField{
			Name:        name,
			Value:       string(content),
			IsFile:      true,
			FileName:    filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
		})
	}
	return fields, nil
}

func applyHeaders(msg *http_utils.Message, headers []string) {
	for _, header := range headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok {
			log.Warn().Str("header", header).Msg("Ignoring header without a colon")
			continue
		}
		name = http.CanonicalHeaderKey(strings.TrimSpace(name))
		if name == "Host" {
			msg.Request.Host = strings.TrimSpace(value)
			continue
		}
		msg.Request.Header.Set(name, strings.TrimSpace(value))
	}
}

// saveFindings writes the findings of each target to its own file in the output directory
func saveFindings(findings []active.Finding, format lib.FormatType, targets []*http_utils.Message) error {
	directory := resolveString(uploadOutputDirectory, "output.directory")
	if directory == "" {
		directory = "."
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return err
	}
	byURL := make(map[string][]active.Finding)
	for _, finding := range findings {
		byURL[finding.URL] = append(byURL[finding.URL], finding)
	}
	extension := string(format)
	if format == lib.Pretty || format == lib.Text || format == lib.Table {
		extension = "txt"
	}
	timestamp := time.Now().Format("20060102-150405")
	for _, target := range targets {
		targetURL := target.Request.URL.String()
		targetFindings, ok := byURL[targetURL]
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s-%s.%s", lib.Slugify(targetURL), timestamp, extension)
		path := filepath.Join(directory, name)
		if err := lib.FormatOutputToFile(targetFindings, format, path); err != nil {
			return err
		}
		log.Info().Str("path", path).Int("findings", len(targetFindings)).Msg("Findings saved")
		delete(byURL, targetURL)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringArrayVarP(&requestFiles, "request", "r", nil, "Raw HTTP upload request file (can be repeated)")
	uploadCmd.Flags().StringVar(&requestScheme, "scheme", "https", "Scheme used for raw requests (http, https)")
	uploadCmd.Flags().StringVarP(&uploadURL, "url", "u", "", "Upload endpoint, used to build the request when no raw request is given")
	uploadCmd.Flags().StringArrayVar(&uploadFields, "field", nil, "Plain form field as name=value (can be repeated)")
	uploadCmd.Flags().StringArrayVar(&uploadFiles, "file", nil, "File form field as field=path (can be repeated)")
	uploadCmd.Flags().StringArrayVarP(&uploadHeaders, "header", "H", nil, "Extra request header as 'Name: value' (can be repeated)")
	uploadCmd.Flags().StringVar(&uploadCookies, "cookie", "", "Cookies appended to the upload requests ('a=1; b=2')")
	uploadCmd.Flags().StringVar(&staticLocationURIRegex, "static-location", "", "Static URI template of uploaded files, ${filename} is replaced with the file name")
	uploadCmd.Flags().StringVar(&dynamicLocationURIRegex, "dynamic-location", "", "URI template of a page that reveals the uploaded file location")
	uploadCmd.Flags().StringVar(&dynamicLocationStartIdentifier, "location-start", "", "Marker preceding the file location in a response")
	uploadCmd.Flags().StringVar(&dynamicLocationEndIdentifier, "location-end", "", "Marker following the file location in a response")
	uploadCmd.Flags().StringSliceVar(&uploadVectors, "vector", nil, "Attack vectors to run (default all, see the vectors command)")
	uploadCmd.Flags().StringVar(&uploadVectorsDirectory, "vectors-dir", "", "Directory with extra vector definitions")
	uploadCmd.Flags().IntVarP(&uploadConcurrency, "concurrency", "c", 0, "Upload requests audited in parallel")
	uploadCmd.Flags().StringVar(&uploadBaseName, "base-name", "", "Prefix of every uploaded file name (random by default)")
	uploadCmd.Flags().Int64Var(&uploadSeed, "seed", 0, "Seed for the per file random tokens, for reproducible runs")
	uploadCmd.Flags().StringVarP(&uploadFormat, "format", "f", "pretty", "Output format (pretty, text, json, yaml, table)")
	uploadCmd.Flags().StringVarP(&uploadOutputDirectory, "output", "o", "", "Directory where findings are saved with --save")
	uploadCmd.Flags().BoolVar(&uploadSave, "save", false, "Save the findings of each upload request to a file")
}
