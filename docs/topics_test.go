package docs

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// The readme is the topic index. Two checks keep it honest:
	// 1. every topic it lists can be loaded,
	// 2. every topic file in the package is listed in it.

	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var listed []string
	scanner := bufio.NewScanner(file)
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)

	for scanner.Scan() {
		if matches := topicRegex.FindStringSubmatch(scanner.Text()); len(matches) > 1 {
			listed = append(listed, strings.TrimSpace(matches[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}
	if len(listed) == 0 {
		t.Fatal("readme.md lists no topics")
	}

	for _, topic := range listed {
		t.Run("load_"+topic, func(t *testing.T) {
			if _, err := Topic(topic); err != nil {
				t.Errorf("failed to get topic %q: %v", topic, err)
			}
		})
	}

	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatalf("failed to glob *.md: %v", err)
	}
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), ".md")
		if name == "readme" {
			continue
		}
		if !slices.Contains(listed, name) {
			t.Errorf("topic %q is not listed in readme.md", name)
		}
	}
}

func TestTopicUnknown(t *testing.T) {
	if _, err := Topic("no-such-topic"); err == nil {
		t.Error("expected an error for an unknown topic")
	}
}

func TestStarExpandsToEveryTopic(t *testing.T) {
	all, err := All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if slices.Contains(all, "readme") {
		t.Error("the readme index should not be a topic")
	}

	star, err := Topic("*")
	if err != nil {
		t.Fatalf("Topic(*): %v", err)
	}
	for _, name := range all {
		content, err := Topic(name)
		if err != nil {
			t.Fatalf("Topic(%q): %v", name, err)
		}
		if !strings.Contains(star, content) {
			t.Errorf("star expansion is missing topic %q", name)
		}
	}
}

func TestMarkdownStructure(t *testing.T) {
	// Guards the properties the terminal renderer and the star expansion
	// rely on: every file opens with a level-1 heading, and every fenced
	// code block names a language.

	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	files = append(files, "../README.md")

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			content, err := os.ReadFile(file)
			if err != nil {
				t.Fatalf("failed to read %s: %v", file, err)
			}

			root := goldmark.DefaultParser().Parse(text.NewReader(content))

			var first *ast.Heading
			ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
				if !entering {
					return ast.WalkContinue, nil
				}
				switch node := n.(type) {
				case *ast.Heading:
					if first == nil {
						first = node
					}
				case *ast.FencedCodeBlock:
					if node.Info == nil {
						t.Error("fenced code block without a language")
						break
					}
					if lang := strings.TrimSpace(string(node.Info.Segment.Value(content))); lang == "" {
						t.Error("fenced code block without a language")
					}
				}
				return ast.WalkContinue, nil
			})

			if first == nil {
				t.Error("no heading at all")
			} else if first.Level != 1 {
				t.Errorf("first heading has level %d, want 1", first.Level)
			}
		})
	}
}
