package stacktrace

import (
	"errors"
	"testing"
)

const gojaStack = `TypeError: Cannot read property 'x' of undefined
	at inner (app.js:3:12(4))
	at outer (app.js:7:3(10))
	at app.js:10:1(15)
`

const v8Stack = `Error: boom
    at Object.handler (/srv/app/handler.js:14:9)
    at new Widget (/srv/app/node_modules/widgets/index.js:2:5)
    at /srv/app/main.js:30:1`

const geckoStack = `render@https://example.com/app.js:20:7
@https://example.com/app.js:40:1`

func TestParse(t *testing.T) {
	type frame struct {
		function string
		filename string
		lineno   int
		colno    int
		inApp    bool
	}

	tests := []struct {
		name  string
		stack string
		skip  int
		want  []frame
	}{
		{
			name:  "goja stack is reversed to oldest first",
			stack: gojaStack,
			want: []frame{
				{"?", "app.js", 10, 1, true},
				{"outer", "app.js", 7, 3, true},
				{"inner", "app.js", 3, 12, true},
			},
		},
		{
			name:  "skip drops innermost frames",
			stack: gojaStack,
			skip:  1,
			want: []frame{
				{"?", "app.js", 10, 1, true},
				{"outer", "app.js", 7, 3, true},
			},
		},
		{
			name:  "v8 stack with constructor and vendored code",
			stack: v8Stack,
			want: []frame{
				{"?", "/srv/app/main.js", 30, 1, true},
				{"Widget", "/srv/app/node_modules/widgets/index.js", 2, 5, false},
				{"Object.handler", "/srv/app/handler.js", 14, 9, true},
			},
		},
		{
			name:  "gecko stack",
			stack: geckoStack,
			want: []frame{
				{"?", "https://example.com/app.js", 40, 1, true},
				{"render", "https://example.com/app.js", 20, 7, true},
			},
		},
		{
			name:  "native frame",
			stack: "Error\n\tat JSON.parse (native)\n\tat main.js:1:1(3)",
			want: []frame{
				{"?", "main.js", 1, 1, true},
				{"JSON.parse", "native", 0, 0, false},
			},
		},
		{
			name:  "empty stack",
			stack: "",
			want:  nil,
		},
		{
			name:  "skip beyond available frames",
			stack: gojaStack,
			skip:  5,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := Parse(tt.stack, tt.skip)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(frames) != len(tt.want) {
				t.Fatalf("expected %d frames, got %d: %+v", len(tt.want), len(frames), frames)
			}
			for i, w := range tt.want {
				got := frames[i]
				if got.Function != w.function || got.Filename != w.filename ||
					got.Lineno != w.lineno || got.Colno != w.colno || got.InApp != w.inApp {
					t.Errorf("frame %d = {%q %q %d %d %v}, want %+v",
						i, got.Function, got.Filename, got.Lineno, got.Colno, got.InApp, w)
				}
			}
		})
	}
}

func TestParse_NegativeSkip(t *testing.T) {
	_, err := Parse(gojaStack, -1)
	if !errors.Is(err, ErrNegativeSkip) {
		t.Errorf("expected ErrNegativeSkip, got %v", err)
	}
}

func TestParse_MaxFrames(t *testing.T) {
	stack := "Error: deep\n"
	for i := 0; i < MaxFrames+20; i++ {
		stack += "\tat recurse (deep.js:1:1(0))\n"
	}

	frames, err := Parse(stack, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(frames) != MaxFrames {
		t.Errorf("expected %d frames, got %d", MaxFrames, len(frames))
	}
}
