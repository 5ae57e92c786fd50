// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package descriptor

// Columns appended to descriptors built with change data capture enabled.
// Writers and readers of the resulting messages must agree on them verbatim.
const (
	ChangeTypeColumn           = "_CHANGE_TYPE"
	ChangeSequenceNumberColumn = "_CHANGE_SEQUENCE_NUMBER"
)

// IsChangeDataCaptureField reports whether name is one of the CDC columns.
func IsChangeDataCaptureField(name string) bool {
	return name == ChangeTypeColumn || name == ChangeSequenceNumberColumn
}
