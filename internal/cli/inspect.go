package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"svgtrav/pkg/dom"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
)

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the render tree of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			if err := s.doc.Layout(); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), paint.Dump(s.doc.RenderRoot))
			return nil
		},
	}
}

func newBBoxCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "bbox FILE",
		Short: "Print the bounding box of an element in its user space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			n := s.doc.DOM.Root
			if id != "" {
				if n, err = s.element(id); err != nil {
					return err
				}
			}
			box, ok, err := s.doc.BBox(n)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g %g %g %g\n", box.X, box.Y, box.W, box.H)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "element id (default: the root element)")
	return cmd
}

func newHitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hit FILE X Y [W H]",
		Short: "List the elements under a point or intersecting a rectangle",
		Long: `Hit prints the elements painted at device point (X, Y) in paint order,
topmost last. With W and H it prints the elements whose painted area
intersects the rectangle instead.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 && len(args) != 5 {
				return fmt.Errorf("expected FILE X Y or FILE X Y W H, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			nums := make([]float64, len(args)-1)
			for i, a := range args[1:] {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q", a)
				}
				nums[i] = v
			}
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			var hits []*dom.Node
			if len(nums) == 4 {
				hits, err = s.doc.SelectRect(geom.Rect{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]})
			} else {
				hits, err = s.doc.HitTest(nums[0], nums[1])
			}
			if err != nil {
				return err
			}
			for _, n := range hits {
				fmt.Fprintln(cmd.OutOrStdout(), describe(n))
			}
			return nil
		},
	}
}

func newMeasureCmd() *cobra.Command {
	var (
		id    string
		chars bool
	)
	cmd := &cobra.Command{
		Use:   "measure FILE",
		Short: "Print the metrics of a text element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			n, err := s.element(id)
			if err != nil {
				return err
			}
			m, err := s.doc.MeasureText(n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chars %d\nlength %g\n", m.NumberOfChars(), m.ComputedTextLength())
			if chars {
				for i := 0; i < m.NumberOfChars(); i++ {
					if r, ok := m.ExtentOfChar(i); ok {
						fmt.Fprintf(out, "%d %g %g %g %g\n", i, r.X, r.Y, r.W, r.H)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "id of the text element")
	cmd.Flags().BoolVar(&chars, "chars", false, "also print the extent of every character")
	cmd.MarkFlagRequired("id")
	return cmd
}

// describe formats n as tag#id.
func describe(n *dom.Node) string {
	if id := n.ID(); id != "" {
		return n.TagName + "#" + id
	}
	return n.TagName
}
