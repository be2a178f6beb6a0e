package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cristianadrielbraun/qrblock/internal/courses"
	"github.com/cristianadrielbraun/qrblock/internal/qr"
)

var (
	renderCourse int64
	renderFormat string
	renderSize   int
	logoFormat   string

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render a course's QR code into the cache and print its path",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}

	logoCmd = &cobra.Command{
		Use:   "logo",
		Short: "Manage the custom logo",
	}

	logoImportCmd = &cobra.Command{
		Use:   "import FILE",
		Short: "Store FILE as the custom logo for a format",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogoImport,
	}
)

func init() {
	renderCmd.Flags().Int64Var(&renderCourse, "course", 0, "course id")
	renderCmd.Flags().StringVar(&renderFormat, "format", "svg", "output format: svg or png")
	renderCmd.Flags().IntVar(&renderSize, "size", 150, "code size in pixels, excluding the margin")
	_ = renderCmd.MarkFlagRequired("course")

	logoImportCmd.Flags().StringVar(&logoFormat, "format", "svg", "logo format: svg or png")
	logoCmd.AddCommand(logoImportCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	format, err := qr.ParseFormat(renderFormat)
	if err != nil {
		return err
	}
	if renderSize < 1 || renderSize > 2000 {
		return fmt.Errorf("size must be between 1 and 2000, got %d", renderSize)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	course, err := a.courses.Course(cmd.Context(), renderCourse)
	if err != nil {
		if errors.Is(err, courses.ErrNotFound) {
			return fmt.Errorf("course %d not found", renderCourse)
		}
		return err
	}

	entry, err := a.composer.EnsureRendered(cmd.Context(), qr.RenderRequest{
		TargetURL:     courses.CourseURL(a.cfg.Site.WWWRoot, course.ID),
		Label:         course.FullName,
		Format:        format,
		SizePx:        renderSize,
		LogoContextID: a.cfg.Site.SystemContextID,
		CourseID:      course.ID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), entry.Path)
	return nil
}

func runLogoImport(cmd *cobra.Command, args []string) error {
	format, err := qr.ParseFormat(logoFormat)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	// The memory index dies with this process, so the server would never see the logo.
	if a.cfg.Files.Index != "redis" {
		return fmt.Errorf("logo import needs files.index set to redis")
	}

	name := a.cfg.Settings().LogoFilename(format)
	if name == "" {
		return fmt.Errorf("no logo filename configured for %s", format)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := a.files.Put(cmd.Context(), a.cfg.Site.SystemContextID, qr.Component, format.LogoArea(), name, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s logo stored as %s (%d bytes, sha1 %s)\n", format, file.Filename, file.Size, file.Hash)
	return nil
}
