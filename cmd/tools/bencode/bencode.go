package bencode

import (
	"fmt"
	"io"
	"os"

	"github.com/movsb/metainfo/pkg/bencode"
	"github.com/spf13/cobra"
	zeebo "github.com/zeebo/bencode"
	"gopkg.in/yaml.v3"
)

func decode(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	switch path := args[0]; path {
	case `-`:
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf(`unable to read: %w`, err)
	}

	var out interface{}
	if lenient, _ := cmd.Flags().GetBool(`lenient`); lenient {
		// files that violate canonical key order still decode here.
		if err := zeebo.DecodeBytes(data, &out); err != nil {
			return fmt.Errorf(`error decoding: %w`, err)
		}
	} else {
		v, err := bencode.Decode(data)
		if err != nil {
			return fmt.Errorf(`error decoding: %w`, err)
		}
		out = plain(v)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	return enc.Encode(out)
}

// plain lowers a bencode value into YAML-friendly types. Byte strings
// keep their raw bytes; yaml renders those that are not text base64.
func plain(v *bencode.Value) interface{} {
	switch v.Kind {
	case bencode.KindInteger:
		if v.Big != nil {
			return v.Big.String()
		}
		return v.Int
	case bencode.KindString:
		// yaml emits invalid UTF-8 strings as !!binary base64, while a
		// []byte would come out as a sequence of integers.
		return string(v.Str)
	case bencode.KindList:
		items := make([]interface{}, 0, len(v.List))
		for _, item := range v.List {
			items = append(items, plain(item))
		}
		return items
	case bencode.KindDict:
		m := make(map[string]interface{}, len(v.Dict))
		for _, it := range v.Dict {
			m[string(it.Key)] = plain(it.Value)
		}
		return m
	}
	return nil
}
