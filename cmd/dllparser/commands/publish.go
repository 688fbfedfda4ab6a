package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/display"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/publish"
)

var (
	publishOutput string
	publishPrefix string
)

// PublishCmd uploads the curated tree to an S3-compatible bucket
var PublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the curated output tree to an S3-compatible bucket",
	Long: `Upload every type file under the output root to the bucket configured in
[publish], keyed as <prefix>/<Module>/<Type>.cstxt. The bucket is created
if it does not exist. Credentials come from DLLPARSER_PUBLISH_ACCESS_KEY
and DLLPARSER_PUBLISH_SECRET_KEY (or a .env file).

Examples:
  dllparser publish
  dllparser publish -o ./curated --prefix rust/2026-10`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	PublishCmd.Flags().StringVarP(&publishOutput, "output", "o", "", "Output root to upload (overrides output.dir)")
	PublishCmd.Flags().StringVar(&publishPrefix, "prefix", "", "Key prefix (overrides publish.prefix)")
	PublishCmd.Flags().Bool("json", false, "Output the publish result as JSON")
}

func runPublish(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)

	loaded, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	cfg := *loaded
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = publishOutput
	}
	if cmd.Flags().Changed("prefix") {
		cfg.Publish.Prefix = publishPrefix
	}
	if cfg.Output.Dir == "" {
		return errors.InvalidConfigf("output.dir cannot be empty")
	}
	if err := cfg.ValidatePublish(); err != nil {
		return err
	}

	bucket, err := publish.NewMinioBucket(cfg.Publish)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var spinner *pterm.SpinnerPrinter
	if !useJSON {
		spinner, _ = pterm.DefaultSpinner.Start("Uploading ", cfg.Output.Dir, " to ", bucket.Name())
	}
	res, err := publish.New(bucket, cfg.Publish.Prefix, logger.ComponentLogger("publish")).
		Publish(ctx, cfg.Output.Dir, cfg.GetOutputExtension())
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil && !res.Interrupted {
		return err
	}

	if useJSON {
		if jerr := display.OutputJSON(res); jerr != nil {
			return jerr
		}
	} else {
		for _, f := range res.Failed {
			pterm.Error.Printf("%s: %s\n", f.Key, f.Error)
		}
		pterm.Info.Printf("Uploaded %d files (%d bytes) to %s in %s\n",
			res.Uploaded, res.Bytes, bucket.Name(), res.EndTime.Sub(res.StartTime).Round(time.Millisecond))
	}

	if err != nil {
		return errors.Wrap(err, "publish interrupted")
	}
	if len(res.Failed) > 0 {
		return errors.Newf("%d uploads failed", len(res.Failed))
	}
	return nil
}
