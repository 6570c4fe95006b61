/*
 *  MIT License
 *
 *  Copyright (c) 2024 Salim Amine BOU ARAM & Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package cplog

import (
	"github.com/sirupsen/logrus"
)

// FromLogrus adapts a *logrus.Entry into a Logger, the child/tree
// operation becoming a WithField("component", path) entry, where path is
// the parent's component and name joined by "/", matching the
// nested-field convention used across the rest of this module's ambient
// logging.
func FromLogrus(entry *logrus.Entry) Logger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return logrusLogger{entry: entry}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l logrusLogger) Log(msg string) {
	l.entry.Info(msg)
}

func (l logrusLogger) LogErr(msg string, err error) {
	l.entry.WithError(err).Error(msg)
}

func (l logrusLogger) Child(name string) Logger {
	if parent, ok := l.entry.Data["component"].(string); ok && parent != "" {
		name = parent + "/" + name
	}
	return logrusLogger{entry: l.entry.WithField("component", name)}
}
