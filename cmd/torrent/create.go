package torrent

import (
	"fmt"

	"github.com/movsb/metainfo/pkg/metainfo"
	"github.com/movsb/metainfo/pkg/torrent"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func createTorrent(cmd *cobra.Command, args []string) error {
	flavorName, _ := cmd.Flags().GetString(`flavor`)
	var flavor metainfo.Flavor
	switch flavorName {
	case `v1`:
		flavor = metainfo.FlavorV1
	case `v2`:
		flavor = metainfo.FlavorV2
	case `hybrid`:
		flavor = metainfo.FlavorHybrid
	default:
		return fmt.Errorf(`unknown flavor: %s`, flavorName)
	}

	c := torrent.NewCreator(args[0], flavor)
	c.PieceLength, _ = cmd.Flags().GetInt64(`piece-length`)
	c.Trackers, _ = cmd.Flags().GetStringArray(`tracker`)
	c.WebSeeds, _ = cmd.Flags().GetStringArray(`webseed`)
	c.Comment, _ = cmd.Flags().GetString(`comment`)
	c.Source, _ = cmd.Flags().GetString(`source`)
	c.Private, _ = cmd.Flags().GetBool(`private`)
	c.NoDate, _ = cmd.Flags().GetBool(`no-date`)
	c.PadFiles, _ = cmd.Flags().GetBool(`pad-files`)
	c.Workers, _ = cmd.Flags().GetInt(`workers`)

	if progress, _ := cmd.Flags().GetBool(`progress`); progress {
		bar := progressbar.DefaultBytes(-1, `hashing`)
		c.Progress = func(n int64) { bar.Add64(n) }
	}

	f, err := c.Create(cmd.Context())
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString(`output`)
	if output == `` {
		output = f.Info.BestName() + `.torrent`
	}
	if err := f.WriteFile(output); err != nil {
		return err
	}

	fmt.Printf("%s\n", output)
	if flavor != metainfo.FlavorV2 {
		fmt.Printf("  infohash v1: %v\n", f.InfoHash())
	}
	if flavor != metainfo.FlavorV1 {
		fmt.Printf("  infohash v2: %v\n", f.InfoHashV2())
	}
	return nil
}

func infoHashes(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		f, err := metainfo.ParseFile(path)
		if err != nil {
			return err
		}
		switch f.Flavor() {
		case metainfo.FlavorV1:
			fmt.Println(f.InfoHash(), path)
		case metainfo.FlavorV2:
			fmt.Println(f.InfoHashV2(), path)
		default:
			fmt.Println(f.InfoHash(), f.InfoHashV2(), path)
		}
	}
	return nil
}
