package spectest

import (
	"strconv"
	"strings"
)

// Case is a named input with the exact HTML it must produce.
type Case struct {
	Name     string
	Input    string
	Expected string
}

// Pathological returns inputs that make naive parsers take quadratic or
// exponential time, or overflow the stack.
func Pathological() []Case {
	cases := []Case{
		{
			Name:     "U+0000 in input",
			Input:    "abc\u0000xyz\u0000\n",
			Expected: "<p>abc�xyz�</p>\n",
		},
		{
			Name:     "alternate line endings",
			Input:    "- a\n- b\r- c\r\n- d",
			Expected: "<ul>\n<li>a</li>\n<li>b</li>\n<li>c</li>\n<li>d</li>\n</ul>\n",
		},
	}

	r := strings.Repeat
	for _, x := range []int{1000, 10000} {
		cases = append(cases,
			Case{
				Name:     sized("nested strong emph", x),
				Input:    r("*a **a ", x) + "b" + r(" a** a*", x),
				Expected: "<p>" + r("<em>a <strong>a ", x) + "b" + r(" a</strong> a</em>", x) + "</p>\n",
			},
			Case{
				Name:     sized("emph closers with no openers", x),
				Input:    r("a_ ", x),
				Expected: "<p>" + r("a_ ", x-1) + "a_</p>\n",
			},
			Case{
				Name:     sized("emph openers with no closers", x),
				Input:    r("_a ", x),
				Expected: "<p>" + r("_a ", x-1) + "_a</p>\n",
			},
			Case{
				Name:     sized("openers and closers multiple of 3", x),
				Input:    "a**b" + r("c* ", x),
				Expected: "<p>a**b" + r("c* ", x-1) + "c*</p>\n",
			},
			Case{
				Name:     sized("#172", x),
				Input:    r("*_* _ ", x),
				Expected: "<p>" + r("<em>_</em> _ ", x-1) + "<em>_</em> _</p>\n",
			},
			Case{
				Name:     sized("link closers with no openers", x),
				Input:    r("a] ", x),
				Expected: "<p>" + r("a] ", x-1) + "a]</p>\n",
			},
			Case{
				Name:     sized("link openers with no closers", x),
				Input:    r("[a ", x),
				Expected: "<p>" + r("[a ", x-1) + "[a</p>\n",
			},
			Case{
				Name:     sized("link openers and emph closers", x),
				Input:    r("[ a_ ", x),
				Expected: "<p>" + r("[ a_ ", x-1) + "[ a_</p>\n",
			},
			Case{
				Name:     sized("mismatched openers and closers", x),
				Input:    r("*a_ ", x),
				Expected: "<p>" + r("*a_ ", x-1) + "*a_</p>\n",
			},
			Case{
				Name:     sized("pattern [ (](", x),
				Input:    r("[ (](", x),
				Expected: "<p>" + r("[ (](", x) + "</p>\n",
			},
			Case{
				Name:     sized("nested brackets", x),
				Input:    r("[", x) + "a" + r("]", x),
				Expected: "<p>" + r("[", x) + "a" + r("]", x) + "</p>\n",
			},
			Case{
				Name:     sized("nested block quote", x),
				Input:    r("> ", x) + "a\n",
				Expected: r("<blockquote>\n", x) + "<p>a</p>\n" + r("</blockquote>\n", x),
			},
			Case{
				Name:     sized(`[\\... deep`, x),
				Input:    "[" + r(`\`, x) + "\n",
				Expected: "<p>[" + r(`\`, x/2) + "</p>\n",
			},
		)
	}

	for _, x := range []int{10, 100, 1000} {
		cases = append(cases, Case{
			Name:     sized("backslashes in unclosed link title", x),
			Input:    `[test](\url "` + r(`\`, x) + "\n",
			Expected: `<p>[test](\url &quot;` + r(`\`, x/2) + "</p>\n",
		})
	}

	for _, x := range []int{10, 100, 1000, 10000} {
		cases = append(cases, Case{
			Name:     sized("[]( deep", x),
			Input:    r("[](", x) + "\n",
			Expected: "<p>" + r("[](", x) + "</p>\n",
		})
	}
	return cases
}

func sized(name string, x int) string {
	return name + " (" + strconv.Itoa(x) + ")"
}
