package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/hupe1980/sctable"
	"github.com/hupe1980/sctable/blobstore"
	"github.com/hupe1980/sctable/internal/compress"
	"github.com/hupe1980/sctable/table"
)

// withTable reads and parses name, calling fn with the table.
func withTable(ctx context.Context, store blobstore.BlobStore, name string, fn func(*table.Table) error) error {
	id, err := table.ParseID(name)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return sctable.NewBlobSource(store, nil).ReadTable(ctx, id, func(raw []byte) error {
		t, err := table.Parse(raw, nil)
		if err != nil {
			return err
		}
		defer t.Close()
		return fn(t)
	})
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func cmdVerify(ctx context.Context, out io.Writer, store blobstore.BlobStore, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: verify needs at least one table", errUsage)
	}
	var failed int
	for _, name := range args {
		err := withTable(ctx, store, name, func(*table.Table) error { return nil })
		if errors.Is(err, errUsage) {
			return err
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s\tFAIL\t%v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "%s\tOK\n", name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tables failed verification", failed, len(args))
	}
	return nil
}

func cmdStat(ctx context.Context, out io.Writer, store blobstore.BlobStore, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: stat needs at least one table", errUsage)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tENTRIES\tTOMBSTONES\tDATA\tSMALLEST\tLARGEST")
	for _, name := range args {
		err := withTable(ctx, store, name, func(t *table.Table) error {
			lo, _ := t.SmallestKey()
			hi, _ := t.LargestKey()
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n", name, t.CatalogSize(), t.TombstoneCount(),
				t.DataSize(), formatKey(lo), formatKey(hi))
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return tw.Flush()
}

func formatKey(k table.InternalKey) string {
	if k.UserKey == nil {
		return "-"
	}
	return fmt.Sprintf("%q@%d", k.UserKey, k.Seq)
}

func cmdDump(ctx context.Context, out io.Writer, store blobstore.BlobStore, args []string) error {
	fs := newFlagSet("dump")
	limit := fs.IntP("limit", "n", 0, "Stop after n entries (0 = all)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: dump needs exactly one table", errUsage)
	}

	return withTable(ctx, store, fs.Arg(0), func(t *table.Table) error {
		for n, it := range t.All() {
			if *limit > 0 && n >= *limit {
				break
			}
			if it.Tombstone {
				fmt.Fprintf(out, "%d\t%q\t@%d\t<deleted>\n", n, it.Key, it.Seq)
				continue
			}
			fmt.Fprintf(out, "%d\t%q\t@%d\t%q\n", n, it.Key, it.Seq, it.Value)
		}
		return nil
	})
}

func cmdGet(ctx context.Context, out io.Writer, store blobstore.BlobStore, args []string) error {
	fs := newFlagSet("get")
	seqFlag := fs.String("seq", "", "Sequence number (default: newest)")
	visible := fs.Bool("visible", false, "Return the newest version at or below --seq")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: get needs a table and a key", errUsage)
	}

	seq := ^uint64(0)
	if *seqFlag != "" {
		var err error
		if seq, err = strconv.ParseUint(*seqFlag, 10, 64); err != nil {
			return fmt.Errorf("%w: invalid --seq: %w", errUsage, err)
		}
	}
	// Without an explicit sequence only a floor lookup makes sense.
	floor := *visible || *seqFlag == ""
	key := table.InternalKey{UserKey: []byte(fs.Arg(1)), Seq: seq}

	return withTable(ctx, store, fs.Arg(0), func(t *table.Table) error {
		if floor {
			v, found, ok := t.GetVisible(table.Bytewise, key)
			if !ok {
				return sctable.ErrNotFound
			}
			fmt.Fprintf(out, "%q\t@%d\n", v, found)
			return nil
		}
		v, ok := t.Get(table.Bytewise, key)
		if !ok {
			return sctable.ErrNotFound
		}
		fmt.Fprintf(out, "%q\t@%d\n", v, seq)
		return nil
	})
}

func cmdPack(ctx context.Context, out io.Writer, store blobstore.BlobStore, args []string) error {
	fs := newFlagSet("pack")
	codecName := fs.String("codec", "zstd", "Envelope codec: none, lz4 or zstd")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: pack needs exactly one table", errUsage)
	}
	codec, err := compress.ParseCodec(*codecName)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	name := fs.Arg(0)

	id, err := table.ParseID(name)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	var env []byte
	err = sctable.NewBlobSource(store, nil).ReadTable(ctx, id, func(raw []byte) error {
		// Refuse to pack something that would not load afterwards.
		t, err := table.Parse(raw, nil)
		if err != nil {
			return err
		}
		_ = t.Close()
		env, err = compress.Wrap(raw, codec)
		return err
	})
	if err != nil {
		return err
	}
	if err := store.Put(ctx, name, env); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%s\t%d bytes\n", name, codec, len(env))
	return nil
}

func cmdList(ctx context.Context, out io.Writer, store blobstore.BlobStore, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: ls takes at most one prefix", errUsage)
	}
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	names, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := table.ParseID(name); err == nil {
			fmt.Fprintln(out, name)
		}
	}
	return nil
}
